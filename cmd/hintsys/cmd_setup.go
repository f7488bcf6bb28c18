package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yangjiwoo8465/proj-hint-system/internal/catalog"
	"github.com/yangjiwoo8465/proj-hint-system/internal/config"
	"github.com/yangjiwoo8465/proj-hint-system/internal/daemon"
)

// cmdInit initializes hintsys for first-time use
func cmdInit() error {
	fmt.Println("hintsys - First-Time Setup")
	fmt.Println("==========================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Creating ~/.hintsys directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.Save(dir, config.Default(dir)); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Qualitative Evaluation")
	fmt.Println("----------------------")
	fmt.Println("Six of the twelve metrics are rated by an LLM (claude, openai or ollama).")
	fmt.Println("Without one every rating defaults to 3.")
	fmt.Println()

	if cfg.LLM.APIKey != "" || cfg.LLM.Provider == "ollama" {
		fmt.Printf("%s: already configured ✓\n", cfg.LLM.Provider)
	} else {
		fmt.Printf("Enter %s API key (or press Enter to skip): ", cfg.LLM.Provider)
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key != "" {
			if err := config.SaveSecrets(dir, map[string]string{cfg.LLM.Provider: key}); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved (set llm.enabled: true in config.yaml to use it)")
			}
		}
	}

	fmt.Println()
	fmt.Print("Checking Docker... ")
	if err := checkDocker(); err != nil {
		fmt.Println("⚠ Not available (local execution will be used)")
	} else {
		fmt.Println("✓")
	}

	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add problems as YAML files to %s\n", cfg.Catalog.Path)
	fmt.Println("  2. hintsys doctor")
	fmt.Println("  3. hintsys grade <user-id> <problem-id> solution.py")
	return nil
}

// cmdDoctor checks system requirements
func cmdDoctor() error {
	fmt.Println("Checking system requirements...")
	allGood := true

	check := func(label string, err error, ok string) {
		fmt.Printf("%-12s", label+":")
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			allGood = false
			return
		}
		fmt.Printf("✓ %s\n", ok)
	}

	check("python3", exec.Command("python3", "--version").Run(), "available")
	check("pycodestyle", exec.Command("python3", "-m", "pycodestyle", "--version").Run(), "available")

	cfg, err := loadConfig()
	check("Config", err, "loaded")
	if err != nil {
		return nil
	}

	if cfg.Runner.Executor == "docker" {
		check("Docker", checkDocker(), "available")
	}

	ids, err := catalog.NewLoader(cfg.Catalog.Path).List()
	check("Problems", err, fmt.Sprintf("%d in %s", len(ids), cfg.Catalog.Path))

	_, closeStore, err := daemon.OpenStore(context.Background(), cfg.Storage)
	check("Storage", err, cfg.Storage.Driver)
	if err == nil {
		closeStore()
	}

	llm := "disabled (defaults of 3)"
	if cfg.LLM.Enabled {
		llm = fmt.Sprintf("%s (model: %s)", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Printf("%-12s%s\n", "LLM:", llm)

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
	return nil
}

// cmdConfig prints the effective configuration. The API key is never printed.
func cmdConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Println("hintsys Configuration")
	fmt.Println()
	fmt.Print(string(data))
	if cfg.Storage.Driver == config.DriverPostgres {
		fmt.Println("\n(storage.postgres_url may contain credentials)")
	}
	return nil
}

// cmdMigrate applies pending migrations of the configured database
func cmdMigrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, closeStore, err := daemon.OpenStore(context.Background(), cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()
	fmt.Printf("Migrations applied (%s) ✓\n", cfg.Storage.Driver)
	return nil
}

func checkDocker() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	cmd := exec.Command("docker", "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon not running")
	}
	return nil
}
