package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"snowsearch/internal/bootstrap"
	"snowsearch/internal/config"
	"snowsearch/internal/security"
	"snowsearch/internal/snowflake"
	"snowsearch/internal/store"
	"snowsearch/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initial configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up SnowSearch...")
	fmt.Println()

	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := config.Default()

	fmt.Println("Snowflake Configuration")
	fmt.Println("-----------------------")

	snowflakeQs := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Snowflake Account (e.g., xy12345.us-east-1):",
			},
			Validate: survey.Required,
		},
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: "Username:",
			},
			Validate: survey.Required,
		},
		{
			Name: "role",
			Prompt: &survey.Input{
				Message: "Role:",
				Default: "SYSADMIN",
			},
			Validate: survey.Required,
		},
		{
			Name: "warehouse",
			Prompt: &survey.Input{
				Message: "Warehouse:",
				Default: "COMPUTE_WH",
			},
			Validate: survey.Required,
		},
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Default database:",
			},
			Validate: survey.Required,
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Default schema:",
				Default: "PUBLIC",
			},
			Validate: survey.Required,
		},
	}

	if err := survey.Ask(snowflakeQs, &cfg.Snowflake); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	password, err := ui.Password("Password:", "Stored in the system keyring, not in the config file")
	if err != nil || password == "" {
		fmt.Println("Error: a password is required")
		os.Exit(1)
	}

	creds, err := security.NewCredentialStore()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	if err := creds.StorePassword(cfg.Snowflake.Account, cfg.Snowflake.Username, password); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Application Schema")
	fmt.Println("------------------")

	appQs := []*survey.Question{
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Application database:",
				Default: "APPLICATION_DB",
			},
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Application schema:",
				Default: "APPLICATION_SCHEMA",
			},
		},
	}
	if err := survey.Ask(appQs, &cfg.App); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var useBootstrap bool
	survey.AskOne(&survey.Confirm{
		Message: "Apply setup SQL from a git repository?",
		Default: false,
	}, &useBootstrap)
	if useBootstrap {
		gitURL, _ := ui.Input("Git URL:", "", "Repository holding versioned setup .sql scripts")
		branch, _ := ui.Input("Branch:", "main", "")
		path, _ := ui.Input("Script path:", "", "Subdirectory containing the scripts, empty for repo root")
		cfg.Bootstrap.GitURL = gitURL
		cfg.Bootstrap.Branch = branch
		cfg.Bootstrap.Path = path
	}

	if err := config.Save(cfg); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", config.GetConfigFile()))

	var provision bool
	survey.AskOne(&survey.Confirm{
		Message: "Connect now and provision the application tables?",
		Default: true,
	}, &provision)
	if !provision {
		fmt.Println("Run 'snowsearch bootstrap' later to provision the application schema.")
		return
	}

	service := snowflake.NewService(snowflake.ConfigFromModel(cfg.Snowflake, password))
	if err := service.Connect(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	defer service.Close()

	if err := store.EnsureSchema(service.GetDB(), cfg.App.QualifiedAppSchema()); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
	ui.ShowSuccess("Application tables are ready")

	if cfg.Bootstrap.GitURL != "" {
		svc := bootstrap.NewService()
		repoPath, err := svc.Sync(cfg.Bootstrap)
		if err != nil {
			ui.ShowError(err)
			return
		}
		applied, err := svc.Apply(service, repoPath, cfg.Bootstrap.Path)
		if err != nil {
			ui.ShowError(err)
			return
		}
		ui.ShowSuccess(fmt.Sprintf("Applied %d setup script(s)", len(applied)))
	}
}
