// Command seed loads sample clients, vehicles and services into a running
// garage-service API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/garage-service/internal/models"
)

type sampleOwner struct {
	Name  string
	Phone string
	Email string
	Plate string
	Make  string
	Model string
	Year  int
}

var sampleOwners = []sampleOwner{
	{"Juan Pérez", "099 123 456", "juan.perez@example.com", "SAA1234", "Toyota", "Corolla", 2020},
	{"María González", "098 765 432", "maria.gonzalez@example.com", "SBB5678", "Chevrolet", "Onix", 2019},
	{"Carlos Rodríguez", "097 234 567", "carlos.rodriguez@example.com", "SCC9012", "Volkswagen", "Gol", 2021},
	{"Ana Martínez", "096 345 678", "ana.martinez@example.com", "SDD3456", "Ford", "Ranger", 2018},
	{"Pedro Silva", "095 456 789", "pedro.silva@example.com", "SEE7890", "Fiat", "Cronos", 2022},
	{"Laura Fernández", "094 567 890", "laura.fernandez@example.com", "SFF2345", "Renault", "Sandero", 2020},
	{"Roberto Díaz", "093 678 901", "roberto.diaz@example.com", "SGG6789", "Nissan", "Kicks", 2021},
	{"Sofía López", "092 789 012", "sofia.lopez@example.com", "SHH0123", "Peugeot", "208", 2019},
	{"Diego Ramírez", "091 890 123", "diego.ramirez@example.com", "SII4567", "Honda", "Civic", 2020},
	{"Valentina Torres", "099 901 234", "valentina.torres@example.com", "SJJ8901", "Hyundai", "Tucson", 2022},
}

var sampleServiceTypes = []string{
	models.ServiceTypeOilChange,
	"Air filter",
	"Fuel filter",
	"Cabin filter",
	"Alignment",
	"Balancing",
	"Tire rotation",
	"Front end",
	"Brakes",
}

var sampleMechanics = []string{"Juan Rodríguez", "Carlos Méndez", "Pedro Suárez", "Diego Fernández"}

var sampleNotes = []string{
	"Full service performed",
	"Customer asks for a check-up in 6 months",
	"Brake pads showing wear",
	"Tires in good condition",
	"Battery replacement recommended soon",
	"All good",
	"Injectors cleaned",
}

type seedOptions struct {
	apiURL   string
	password string
	services int
	days     int
	complete float64
	seed     int64
}

type seeder struct {
	apiURL string
	token  string
	client *http.Client
	rng    *rand.Rand
	now    time.Time
}

func newSeeder(opts seedOptions) *seeder {
	return &seeder{
		apiURL: strings.TrimRight(opts.apiURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
		rng:    rand.New(rand.NewSource(opts.seed)),
		now:    time.Now(),
	}
}

func (s *seeder) authorizedPost(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, s.apiURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("POST %s failed with status %d: %s", path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *seeder) login(password string) error {
	if password == "" {
		return nil
	}
	var resp models.LoginResponse
	if err := s.authorizedPost("/api/auth/login", models.LoginRequest{Password: password}, &resp); err != nil {
		return err
	}
	s.token = resp.Token
	return nil
}

// createOwners registers each sample client and its vehicle, returning the vehicle ids.
func (s *seeder) createOwners() ([]string, error) {
	vehicleIDs := make([]string, 0, len(sampleOwners))
	for _, o := range sampleOwners {
		var c models.Client
		if err := s.authorizedPost("/api/clients", models.ClientInput{Name: o.Name, Phone: o.Phone, Email: o.Email}, &c); err != nil {
			return vehicleIDs, err
		}
		var v models.Vehicle
		in := models.VehicleInput{Plate: o.Plate, Make: o.Make, Model: o.Model, Year: o.Year, ClientID: c.ID}
		if err := s.authorizedPost("/api/vehicles", in, &v); err != nil {
			return vehicleIDs, err
		}
		vehicleIDs = append(vehicleIDs, v.ID)
		log.WithFields(log.Fields{
			"client_id":  c.ID,
			"vehicle_id": v.ID,
			"plate":      v.Plate,
		}).Info("Created client and vehicle")
	}
	return vehicleIDs, nil
}

func (s *seeder) randomService(vehicleIDs []string, days int) models.ServiceInput {
	shuffled := append([]string(nil), sampleServiceTypes...)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	types := shuffled[:1+s.rng.Intn(4)]

	in := models.ServiceInput{
		VehicleID:    vehicleIDs[s.rng.Intn(len(vehicleIDs))],
		Date:         s.now.AddDate(0, 0, -s.rng.Intn(days)).Format(models.DateLayout),
		Odometer:     20000 + s.rng.Intn(180000),
		ServiceTypes: types,
		Notes:        sampleNotes[s.rng.Intn(len(sampleNotes))],
		Cost:         float64(1500 + s.rng.Intn(6500)),
		Mechanic:     sampleMechanics[s.rng.Intn(len(sampleMechanics))],
	}
	for _, t := range types {
		if t == models.ServiceTypeOilChange {
			in.OilType = models.OilTypes[s.rng.Intn(len(models.OilTypes))]
		}
	}
	return in
}

func (s *seeder) createServices(vehicleIDs []string, opts seedOptions) (created, completed int, err error) {
	for i := 0; i < opts.services; i++ {
		var svc models.Service
		if err := s.authorizedPost("/api/services", s.randomService(vehicleIDs, opts.days), &svc); err != nil {
			return created, completed, err
		}
		created++
		if s.rng.Float64() < opts.complete {
			if err := s.authorizedPost("/api/services/"+svc.ID+"/complete", struct{}{}, nil); err != nil {
				return created, completed, err
			}
			completed++
		}
	}
	return created, completed, nil
}

func runSeed(opts seedOptions) error {
	if opts.days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	s := newSeeder(opts)

	log.WithFields(log.Fields{
		"api_url":  s.apiURL,
		"services": opts.services,
		"days":     opts.days,
	}).Info("Loading sample data")

	if err := s.login(opts.password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	vehicleIDs, err := s.createOwners()
	if err != nil {
		return err
	}
	created, completed, err := s.createServices(vehicleIDs, opts)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"vehicles":  len(vehicleIDs),
		"services":  created,
		"completed": completed,
	}).Info("Sample data loaded")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample clients, vehicles and services",
		Long: `Registers ten sample clients with one vehicle each and a batch of random
service visits spread over the last days, completing a share of them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts)
		},
	}
	cmd.Flags().StringVar(&opts.apiURL, "api-url", getEnv("API_BASE_URL", "http://localhost:8080"), "base URL of the garage-service API")
	cmd.Flags().StringVar(&opts.password, "password", os.Getenv("SHOP_PASSWORD"), "shop password")
	cmd.Flags().IntVarP(&opts.services, "services", "n", 30, "number of services to create")
	cmd.Flags().IntVar(&opts.days, "days", 90, "spread service dates over this many past days")
	cmd.Flags().Float64Var(&opts.complete, "complete", 0.5, "share of services to mark completed")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
}
