package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// planFile is the on-disk plan definition format. Prices are strings so the
// YAML stays exact; they are parsed into decimals during load.
type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Group       string         `yaml:"group,omitempty"`
	Permissions []string       `yaml:"permissions,omitempty"`
	POSLimit    int            `yaml:"pos_limit"`
	FreeTrial   bool           `yaml:"free_trial,omitempty"`
	TrialDays   int            `yaml:"trial_days,omitempty"`
	Features    []featureEntry `yaml:"features,omitempty"`
	Pricings    []pricingEntry `yaml:"pricings,omitempty"`
}

type featureEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type pricingEntry struct {
	Interval string `yaml:"interval"`
	Price    string `yaml:"price"`
	Currency string `yaml:"currency"`
}

// LoadPlansFromFile seeds the catalog from a YAML definition file. Plans
// whose name already exists are skipped, so the load is safe to repeat on
// every deployment. Returns the plans created during this run.
func LoadPlansFromFile(ctx context.Context, svc Service, path string) ([]Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var file planFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Join(ErrFailedToParsePlanFile, err)
	}

	created := make([]Plan, 0, len(file.Plans))
	for _, entry := range file.Plans {
		plan, err := seedPlan(ctx, svc, entry)
		if err != nil {
			return created, err
		}
		if plan != nil {
			created = append(created, *plan)
		}
	}
	return created, nil
}

func seedPlan(ctx context.Context, svc Service, entry planEntry) (*Plan, error) {
	if _, err := svc.GetPlanByName(ctx, entry.Name); err == nil {
		return nil, nil // already seeded
	} else if !errors.Is(err, ErrPlanNotFound) {
		return nil, err
	}

	var groupID uuid.UUID
	if entry.Group != "" {
		id, err := uuid.Parse(entry.Group)
		if err != nil {
			return nil, fmt.Errorf("%w: plan %q group: %v", ErrFailedToParsePlanFile, entry.Name, err)
		}
		groupID = id
	}

	features := make([]Feature, 0, len(entry.Features))
	for _, f := range entry.Features {
		features = append(features, Feature{
			ID:          uuid.New(),
			Name:        f.Name,
			Description: f.Description,
		})
	}

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{
		Name:        entry.Name,
		Description: entry.Description,
		Features:    features,
		GroupID:     groupID,
		Permissions: entry.Permissions,
		POSLimit:    entry.POSLimit,
		IsFreeTrial: entry.FreeTrial,
		TrialDays:   entry.TrialDays,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range entry.Pricings {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: plan %q price %q: %v", ErrFailedToParsePlanFile, entry.Name, p.Price, err)
		}
		if _, err := svc.CreatePricing(ctx, CreatePricingInput{
			PlanID:   plan.ID,
			Interval: Interval(p.Interval),
			Price:    price,
			Currency: p.Currency,
		}); err != nil {
			return nil, err
		}
	}

	return &plan, nil
}

// SeedDefaultTrialPlan creates the built-in free trial plan when no plan by
// that name exists: one point of sale, thirty days, zero-priced monthly
// billing. Returns the existing plan unchanged when already present.
func SeedDefaultTrialPlan(ctx context.Context, svc Service) (Plan, error) {
	const trialName = "Free Trial"

	if existing, err := svc.GetPlanByName(ctx, trialName); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrPlanNotFound) {
		return Plan{}, err
	}

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{
		Name:        trialName,
		Description: "30-day free trial with basic features",
		Features: []Feature{
			{ID: uuid.New(), Name: "Basic Inventory Management", Description: "Manage your inventory with basic features"},
			{ID: uuid.New(), Name: "Single Point of Sale", Description: "Create and manage a single point of sale"},
			{ID: uuid.New(), Name: "Basic Reporting", Description: "Access basic sales and inventory reports"},
		},
		Permissions: []string{"stater"},
		POSLimit:    1,
		IsFreeTrial: true,
		TrialDays:   30,
	})
	if err != nil {
		return Plan{}, err
	}

	if _, err := svc.CreatePricing(ctx, CreatePricingInput{
		PlanID:   plan.ID,
		Interval: IntervalMonth,
		Price:    decimal.Zero,
		Currency: "EUR",
	}); err != nil {
		return Plan{}, err
	}

	return plan, nil
}
