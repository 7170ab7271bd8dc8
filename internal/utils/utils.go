package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

var firstNames = []string{
	"Anna", "Ben", "Clara", "David", "Elena", "Felix", "Greta", "Hannes",
	"Ida", "Jonas", "Katja", "Lukas", "Mia", "Niklas", "Ola", "Paula",
	"Quirin", "Rosa", "Stefan", "Tessa",
}

var lastNames = []string{
	"Bauer", "Fischer", "Hoffmann", "Keller", "Lang", "Meyer", "Neumann",
	"Richter", "Schmidt", "Vogel", "Wagner", "Weber", "Winkler", "Wolf",
	"Zimmermann",
}

func GenerateRandomFullName() string {
	first := firstNames[rand.Intn(len(firstNames))]
	last := lastNames[rand.Intn(len(lastNames))]
	return first + " " + last
}

var digits = "0123456789"

func GenerateUsernameFromFullName(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	username := ""
	for _, part := range parts {
		length := rand.Intn(len(part)) + 1
		username += part[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var roles = []domain.Role{
	domain.RoleChief,
	domain.RoleDisponent,
	domain.RoleAnalyst,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := GenerateUsernameFromFullName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	for i := range password {
		password[i] = letters[rand.Intn(len(letters))]
	}
	return string(password)
}

// GenerateRandomShiftTemplate slices the service day into non-overlapping
// duty periods with random applicable weekdays.
func GenerateRandomShiftTemplate() *domain.ShiftTemplate {
	types := []string{"early", "day", "evening", "night"}
	typ := types[rand.Intn(len(types))]

	startHour := rand.Intn(22)
	duration := rand.Intn(6) + 2

	tpl := &domain.ShiftTemplate{
		Name:      fmt.Sprintf("%s-%02d", typ, startHour),
		ShiftType: typ,
		Start:     fmt.Sprintf("%02d:%02d", startHour, rand.Intn(4)*15),
		End:       fmt.Sprintf("%02d:%02d", (startHour+duration)%24, rand.Intn(4)*15),
		Weekdays:  GenerateRandomWeekdays(),
	}

	if rand.Intn(2) == 0 {
		tpl.WorkLocation = domain.LocationDepot
		tpl.RequiresOnSite = true
	} else {
		tpl.WorkLocation = domain.LocationHome
	}

	return tpl
}

// GenerateRandomWeekdays draws a non-empty random subset via a
// Fisher-Yates shuffle.
func GenerateRandomWeekdays() []time.Weekday {
	days := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(len(days)) + 1

	return days[:n]
}
