package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/config"
)

// starterTemplates are the scripts `fakews init` can write.
var starterTemplates = map[string]struct {
	description string
	build       func(name string) *config.ScriptFile
}{
	"echo": {
		description: "Answer one message with the same text",
		build: func(name string) *config.ScriptFile {
			return &config.ScriptFile{Name: name, Steps: []config.StepConfig{
				{Expect: config.TextConfig("ping"), Respond: config.SingleResponse(config.TextConfig("ping"))},
			}}
		},
	},
	"greeting": {
		description: "Push a welcome, then answer hello with two messages",
		build: func(name string) *config.ScriptFile {
			return &config.ScriptFile{Name: name, Steps: []config.StepConfig{
				{Respond: config.SingleResponse(config.TextConfig("welcome"))},
				{
					Expect:  config.TextConfig("hello"),
					Respond: config.SequenceResponse(config.TextConfig("hi"), config.TextConfig("there")),
				},
			}}
		},
	},
	"binary": {
		description: "Expect a binary frame and answer with another",
		build: func(name string) *config.ScriptFile {
			return &config.ScriptFile{Name: name, Steps: []config.StepConfig{
				{Expect: config.BinaryConfig("AQID"), Respond: config.SingleResponse(config.BinaryConfig("BAUG"))},
			}}
		},
	},
}

func templateNames() []string {
	names := make([]string, 0, len(starterTemplates))
	for n := range starterTemplates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newInitCmd(a *app) *cobra.Command {
	var (
		outputPath  string
		name        string
		template    string
		force       bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter script file",
		Long: `Create a starter script file from a template.

Templates:
` + describeTemplates(),
		Example: `  # Write fakews.yaml from the greeting template
  fakews init

  # Pick everything from prompts
  fakews init -i

  # JSON output from the echo template
  fakews init -t echo -o echo.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interactive {
				if err := promptInit(&outputPath, &name, &template); err != nil {
					return err
				}
			}

			tmpl, ok := starterTemplates[template]
			if !ok {
				return fmt.Errorf("unknown template %q (available: %s)", template, strings.Join(templateNames(), ", "))
			}
			if _, err := os.Stat(outputPath); err == nil && !force {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", outputPath)
			}

			file := tmpl.build(name)
			if err := config.SaveScriptFile(outputPath, file); err != nil {
				return err
			}
			a.logger.Debug("wrote starter script", "template", template, "file", outputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d steps)\n", outputPath, len(file.Steps))
			fmt.Fprintf(cmd.OutOrStdout(), "Run it with: fakews serve %s\n", outputPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "fakews.yaml", "Output file (.json selects JSON)")
	f.StringVar(&name, "name", "example", "Script name")
	f.StringVarP(&template, "template", "t", "greeting", "Template to use")
	f.BoolVar(&force, "force", false, "Overwrite an existing file")
	f.BoolVarP(&interactive, "interactive", "i", false, "Prompt for the settings")
	return cmd
}

func describeTemplates() string {
	var b strings.Builder
	for _, n := range templateNames() {
		fmt.Fprintf(&b, "  %-10s %s\n", n, starterTemplates[n].description)
	}
	return b.String()
}

func promptInit(outputPath, name, template *string) error {
	options := make([]huh.Option[string], 0, len(starterTemplates))
	for _, n := range templateNames() {
		options = append(options, huh.NewOption(n+" - "+starterTemplates[n].description, n))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Script name").
				Placeholder("example").
				Value(name),
			huh.NewSelect[string]().
				Title("Template").
				Options(options...).
				Value(template),
			huh.NewInput().
				Title("Output file").
				Placeholder("fakews.yaml").
				Value(outputPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("output file is required")
					}
					return nil
				}),
		),
	)
	return form.Run()
}
