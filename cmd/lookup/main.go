package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/solvire/fartemis/internal/config"
	"github.com/solvire/fartemis/providers"
	"github.com/solvire/fartemis/resolution"
	"github.com/solvire/fartemis/resolution/types"
)

func main() {
	firstName := flag.String("first_name", "", "First name of the person to find")
	lastName := flag.String("last_name", "", "Last name of the person to find")
	company := flag.String("company", "", "Current or last known employer")
	roleHint := flag.String("role", "", "Optional role hint, e.g. engineer or recruiter")
	printJSON := flag.Bool("json", false, "Print the full result as JSON")
	flag.Parse()

	if *firstName == "" || *lastName == "" {
		flag.Usage()
		log.Fatalf("first_name and last_name are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	searchProviders := map[string]types.SearchProviderInterface{}
	register := func(p types.SearchProviderInterface) {
		searchProviders[p.GetName()] = p
	}
	register(providers.NewDuckDuckGoProvider(cfg.ProviderTimeout, cfg.ProviderPacing))
	register(providers.NewTavilyProvider(cfg.TavilyAPIKey, cfg.ProviderTimeout, cfg.ProviderPacing))
	register(providers.NewHTMLSearchProvider(cfg.ProviderTimeout, cfg.ProviderPacing))

	engine, err := resolution.NewEngine(resolution.EngineConfig{
		Config:    cfg.ResolutionConfig(),
		Providers: searchProviders,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Ошибка создания движка резолюции: %v", err)
	}

	result, err := engine.Resolve(context.Background(), types.SearchCriteria{
		FirstName: *firstName,
		LastName:  *lastName,
		Company:   *company,
		RoleHint:  *roleHint,
	})
	if err != nil {
		log.Fatalf("Ошибка резолюции: %v", err)
	}

	fmt.Println("\n--- Profile Resolution Result ---")
	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("Status: %s\n", result.Status)
	fmt.Printf("Confidence Tier: %s\n", result.ConfidenceTier)

	if result.BestCandidate != nil {
		fmt.Printf("Best Match: %s\n", result.BestCandidate.Candidate.URL)
		fmt.Printf("Handle: %s\n", result.BestCandidate.Candidate.ExtractedHandle)
		fmt.Printf("Score: %.1f\n", result.BestCandidate.TotalScore)
	}

	if result.NameChange != nil {
		fmt.Printf("Possible name change: %s -> %s (confidence %.2f)\n",
			result.NameChange.OriginalName, result.NameChange.CurrentName, result.NameChange.Confidence)
	}

	fmt.Println("\nEvidence:")
	if len(result.Evidence) == 0 {
		fmt.Println("  No evidence collected.")
	} else {
		for _, line := range result.Evidence {
			fmt.Printf("  - %s\n", line)
		}
	}

	if len(result.Alternates) > 1 {
		fmt.Println("\nAlternates:")
		for _, alt := range result.Alternates[1:] {
			fmt.Printf("  - %s (%.1f)\n", alt.Candidate.URL, alt.TotalScore)
		}
	}

	if *printJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("failed to marshal result: %v", err)
		}
		fmt.Println(string(payload))
	}
}
