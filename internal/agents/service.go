package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentvault/agentvault/internal/vault"
)

// Service validates and exposes catalog operations.
type Service struct {
	repo Repository
}

// NewService constructs an agent catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the data needed to list a new agent.
type CreateInput struct {
	Name        string
	Wallet      string
	Price       uint64
	Description string
	ImageURL    string
}

// Create registers an agent after normalizing its wallet address.
func (s *Service) Create(ctx context.Context, input CreateInput) (Agent, error) {
	if input.Name == "" {
		return Agent{}, ErrInvalidName
	}
	if input.Price == 0 {
		return Agent{}, vault.ErrInvalidAmount
	}
	wallet, err := vault.ParseAddress(input.Wallet)
	if err != nil {
		return Agent{}, err
	}
	if wallet.IsZero() {
		return Agent{}, vault.ErrInvalidIdentity
	}

	return s.repo.Create(ctx, Agent{
		Name:        input.Name,
		Wallet:      wallet.String(),
		Price:       input.Price,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Active:      true,
	})
}

// Get fetches an agent by id.
func (s *Service) Get(ctx context.Context, id int64) (Agent, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByWallet fetches an agent by its payout wallet.
func (s *Service) GetByWallet(ctx context.Context, rawWallet string) (Agent, error) {
	wallet, err := vault.ParseAddress(rawWallet)
	if err != nil {
		return Agent{}, err
	}
	return s.repo.GetByWallet(ctx, wallet.String())
}

// List pages through the catalog.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Agent, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a partial update to an agent.
func (s *Service) Update(ctx context.Context, id int64, update Update) (Agent, error) {
	if update.Price != nil && *update.Price == 0 {
		return Agent{}, vault.ErrInvalidAmount
	}
	return s.repo.Update(ctx, id, update)
}

// Delete removes an agent from the catalog.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Seed inserts the sample marketplace agents, skipping wallets that already
// exist. Returns the number inserted.
func (s *Service) Seed(ctx context.Context) (int, error) {
	inserted := 0
	for _, input := range SampleAgents {
		if _, err := s.Create(ctx, input); err != nil {
			if errors.Is(err, ErrDuplicateWallet) {
				continue
			}
			return inserted, fmt.Errorf("seed %s: %w", input.Name, err)
		}
		inserted++
	}
	return inserted, nil
}

// SampleAgents is the demo marketplace catalog. Prices are 6-decimal
// smallest units.
var SampleAgents = []CreateInput{
	{
		Name:        "ResearchGPT",
		Wallet:      "0x1234567890123456789012345678901234567890",
		Price:       25_000000,
		Description: "Autonomous research agent that gathers, analyzes, and summarizes information from multiple sources.",
		ImageURL:    "https://via.placeholder.com/400x300?text=ResearchGPT",
	},
	{
		Name:        "DataAnalyzer Pro",
		Wallet:      "0x2345678901234567890123456789012345678901",
		Price:       50_000000,
		Description: "Advanced data analysis agent that processes large datasets and generates actionable insights.",
		ImageURL:    "https://via.placeholder.com/400x300?text=DataAnalyzer",
	},
	{
		Name:        "ContentCreator AI",
		Wallet:      "0x3456789012345678901234567890123456789012",
		Price:       30_000000,
		Description: "Creative writing agent for blog posts, social media, and marketing copy.",
		ImageURL:    "https://via.placeholder.com/400x300?text=ContentCreator",
	},
	{
		Name:        "CodeAssistant",
		Wallet:      "0x4567890123456789012345678901234567890123",
		Price:       75_000000,
		Description: "Coding assistant that writes, reviews, and debugs code across multiple languages.",
		ImageURL:    "https://via.placeholder.com/400x300?text=CodeAssistant",
	},
	{
		Name:        "CustomerSupport Bot",
		Wallet:      "0x5678901234567890123456789012345678901234",
		Price:       40_000000,
		Description: "Always-on support agent that handles inquiries and escalates complex issues.",
		ImageURL:    "https://via.placeholder.com/400x300?text=CustomerSupport",
	},
}
