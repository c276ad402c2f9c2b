package models

import (
	"fmt"
	"strings"
	"time"
)

type CourtCategory string

const (
	CourtIndoor  CourtCategory = "indoor"
	CourtOutdoor CourtCategory = "outdoor"
)

func ParseCourtCategory(raw string) (CourtCategory, error) {
	switch CourtCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CourtIndoor:
		return CourtIndoor, nil
	case CourtOutdoor:
		return CourtOutdoor, nil
	default:
		return "", fmt.Errorf("court category %q must be indoor or outdoor", raw)
	}
}

type Court struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Category    CourtCategory `json:"category"`
	BasePrice   float64       `json:"basePrice"`
	Active      bool          `json:"isActive"`
	Description string        `json:"description"`
	Features    []string      `json:"features"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// AvailabilityWindow is a recurring weekly window a coach advertises.
type AvailabilityWindow struct {
	DayOfWeek time.Weekday `json:"dayOfWeek"`
	StartTime TimeOfDay    `json:"startTime"`
	EndTime   TimeOfDay    `json:"endTime"`
}

type Coach struct {
	ID             int64                `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Specialization string               `json:"specialization"`
	HourlyRate     float64              `json:"hourlyRate"`
	Bio            string               `json:"bio"`
	Experience     int                  `json:"experience"`
	Active         bool                 `json:"isActive"`
	Availability   []AvailabilityWindow `json:"availability"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

type EquipmentCategory string

const (
	EquipmentRacket EquipmentCategory = "racket"
	EquipmentShoes  EquipmentCategory = "shoes"
	EquipmentOther  EquipmentCategory = "other"
)

func ParseEquipmentCategory(raw string) (EquipmentCategory, error) {
	switch EquipmentCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case EquipmentRacket:
		return EquipmentRacket, nil
	case EquipmentShoes:
		return EquipmentShoes, nil
	case EquipmentOther:
		return EquipmentOther, nil
	default:
		return "", fmt.Errorf("equipment category %q must be racket, shoes, or other", raw)
	}
}

type Equipment struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Category      EquipmentCategory `json:"category"`
	TotalQuantity int               `json:"totalQuantity"`
	PricePerHour  float64           `json:"pricePerHour"`
	Active        bool              `json:"isActive"`
	Description   string            `json:"description"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
