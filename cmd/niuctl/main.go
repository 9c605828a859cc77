// Command niuctl switches the ignition of a NIU scooter from a terminal.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/futurehomeno/edge-niu-adapter/internal/config"
	"github.com/futurehomeno/edge-niu-adapter/internal/niu"
)

func main() {
	username := flag.String("username", "", "NIU account e-mail or phone number")
	scooterID := flag.Int("scooter", 0, "Index of the scooter in the account vehicle list")
	ignition := flag.String("ignition", "", "Ignition state to set: on or off")
	language := flag.String("language", "en-US", "Language sent to the NIU API")
	accountURL := flag.String("account-url", config.DefaultAccountBaseURL, "NIU account service URL")
	apiURL := flag.String("api-url", config.DefaultAPIBaseURL, "NIU application API URL")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	flag.Parse()

	if *username == "" || (*ignition != "on" && *ignition != "off") {
		fmt.Println("Usage: niuctl -username <account> -ignition <on|off> [-scooter <index>]")
		os.Exit(2)
	}

	password, err := readPassword()
	if err != nil {
		log.WithError(err).Fatal("failed to read password")
	}

	httpClient := niu.NewHTTPClient(&http.Client{Timeout: *timeout}, *accountURL, *apiURL)
	credentials := config.Credentials{
		Username:  *username,
		Password:  password,
		ScooterID: *scooterID,
		Language:  *language,
	}

	client := niu.NewClient(httpClient, niu.NewTokenManager(httpClient), credentials)

	vehicle, err := client.ResolveVehicle()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve scooter")
	}

	if err := client.SetIgnition(*ignition == "on"); err != nil {
		log.WithError(err).WithField("serial_number", vehicle.SerialNumber).Fatal("failed to set ignition")
	}

	log.WithField("serial_number", vehicle.SerialNumber).
		WithField("name", vehicle.Name).
		Infof("ignition switched %s", *ignition)
}

// readPassword takes the password from NIU_PASSWORD or prompts for it without echo.
func readPassword() (string, error) {
	if password := os.Getenv("NIU_PASSWORD"); password != "" {
		return password, nil
	}

	fmt.Print("Password: ")

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()

	if err != nil {
		return "", err
	}

	return string(password), nil
}
