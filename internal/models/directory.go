package models

import (
	"fmt"
	"strings"
	"time"
)

type Location struct {
	ID               int64  `json:"id" yaml:"id"`
	City             string `json:"city" yaml:"city"`
	Street           string `json:"street" yaml:"street"`
	StreetNumber     string `json:"street_number" yaml:"street_number"`
	ApartmentAddress string `json:"apartment_address,omitempty" yaml:"apartment_address"`
}

func (l Location) String() string {
	parts := []string{l.City, l.Street, l.StreetNumber}
	if l.ApartmentAddress != "" {
		parts = append(parts, l.ApartmentAddress)
	}
	return strings.Join(parts, ", ")
}

// Service is reference data: what a worker can do and how long it takes.
type Service struct {
	ID              int64  `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Price           int64  `json:"price" yaml:"price"`
	Currency        string `json:"currency" yaml:"currency"`
	DurationSeconds int64  `json:"duration_seconds" yaml:"duration_seconds"`
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

var supportedCurrencies = map[string]bool{
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyJPY: true,
	CurrencyCNY: true,
	CurrencyUAH: true,
}

func ValidCurrency(code string) bool {
	return supportedCurrencies[strings.ToUpper(code)]
}

type Worker struct {
	ID         int64   `json:"id" yaml:"id"`
	FirstName  string  `json:"first_name" yaml:"first_name"`
	LastName   string  `json:"last_name" yaml:"last_name"`
	Profession string  `json:"profession" yaml:"profession"`
	ServiceIDs []int64 `json:"service_ids" yaml:"service_ids"`
}

func (w Worker) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", w.FirstName, w.LastName))
}

func (w Worker) Provides(serviceID int64) bool {
	for _, id := range w.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
