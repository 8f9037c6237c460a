package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	appconfig "github.com/healthfirst/scheduling-assistant/internal/config"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

var insuranceCarriers = []string{
	"Blue Cross Blue Shield",
	"Aetna",
	"Cigna",
	"UnitedHealth Group",
	"Humana",
	"Kaiser Permanente",
	"Anthem",
	"Molina Healthcare",
	"Other",
}

// seedStore is the subset of the store the seeder needs. Both backends
// implement it.
type seedStore interface {
	store.Store
	AddScheduleSlots(ctx context.Context, slots []store.ScheduleSlot) error
}

func main() {
	_ = godotenv.Load()

	numPatients := flag.Int("patients", 50, "number of synthetic patients to create")
	days := flag.Int("days", 30, "number of days of doctor schedules to generate")
	seed := flag.Uint64("seed", 0, "deterministic random seed (0 = random)")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	if *seed != 0 {
		gofakeit.Seed(int64(*seed))
	}

	var st seedStore
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		st = store.NewPostgresStore(pool, store.NoopLocker{}, logger)
	default:
		fs, err := store.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			logger.Error("failed to open data directory", "error", err)
			os.Exit(1)
		}
		st = fs
	}

	logger.Info("seeding synthetic patients", "count", *numPatients)
	if err := seedPatients(ctx, st, *numPatients); err != nil {
		logger.Error("failed to seed patients", "error", err)
		os.Exit(1)
	}

	logger.Info("generating doctor schedules", "days", *days)
	slots := generateSchedules(clinic.DefaultRoster(), time.Now(), *days)
	if err := st.AddScheduleSlots(ctx, slots); err != nil {
		logger.Error("failed to seed schedules", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete", "patients", *numPatients, "schedule_slots", len(slots))
}

func seedPatients(ctx context.Context, st seedStore, count int) error {
	for i := 0; i < count; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()

		dob := gofakeit.DateRange(
			time.Date(1943, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
		)

		id, err := st.AddPatient(ctx, store.NewPatient{
			FirstName:        first,
			LastName:         last,
			DateOfBirth:      dob.Format(time.DateOnly),
			Phone:            fmt.Sprintf("+1-555-%03d-%04d", gofakeit.Number(100, 999), gofakeit.Number(1000, 9999)),
			Email:            fmt.Sprintf("%s.%s@email.com", strings.ToLower(first), strings.ToLower(last)),
			Address:          fmt.Sprintf("%s, %s, %s %s", gofakeit.Street(), gofakeit.City(), gofakeit.StateAbr(), gofakeit.Zip()),
			InsuranceCarrier: insuranceCarriers[gofakeit.Number(0, len(insuranceCarriers)-1)],
			MemberID:         gofakeit.LetterN(4) + gofakeit.DigitN(6),
			GroupNumber:      gofakeit.DigitN(6),
		})
		if err != nil {
			return err
		}

		// Roughly 70% of seeded patients are returning patients with a
		// prior visit on record.
		if gofakeit.Number(1, 100) > 30 {
			lastVisit := time.Now().AddDate(0, 0, -gofakeit.Number(30, 365))
			if _, err := st.UpdatePatient(ctx, id, map[string]string{
				"is_new_patient": "false",
				"last_visit":     lastVisit.Format(time.DateOnly),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateSchedules builds half-hour slots from 9:00 to 17:00, skipping
// the 12:00-13:00 lunch break, on each doctor's working days. Each slot
// has a 10% chance of being withheld to mimic real calendars.
func generateSchedules(roster clinic.Roster, start time.Time, days int) []store.ScheduleSlot {
	var slots []store.ScheduleSlot

	times := make([]string, 0, 14)
	for hour := 9; hour < 12; hour++ {
		times = append(times, fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:30", hour))
	}
	for hour := 13; hour < 17; hour++ {
		times = append(times, fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:30", hour))
	}

	for offset := 0; offset < days; offset++ {
		day := start.AddDate(0, 0, offset)
		for i := range roster {
			doc := &roster[i]
			if !doc.WorksOn(day.Weekday()) {
				continue
			}
			for _, ts := range times {
				if gofakeit.Number(1, 10) == 1 {
					continue
				}
				slots = append(slots, store.ScheduleSlot{
					DoctorName:  doc.Name,
					Specialty:   doc.Specialty,
					Location:    doc.Location,
					Date:        day.Format(time.DateOnly),
					DayOfWeek:   day.Weekday().String(),
					TimeSlot:    ts,
					IsAvailable: true,
				})
			}
		}
	}
	return slots
}
