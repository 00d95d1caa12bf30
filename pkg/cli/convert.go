package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/config"
	"github.com/getmockd/fakews/pkg/recording"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		outputPath string
		name       string
		format     string
		dedupe     bool
	)

	cmd := &cobra.Command{
		Use:   "convert <transcript.json>",
		Short: "Convert a recorded transcript into a script file",
		Long: `Convert a transcript written by 'fakews record' into a script file.

Each sent message becomes an expectation and the messages received after it
become its response. Messages received before the first send become a step
that is pushed as soon as the client connects.`,
		Example: `  fakews convert hello.json -o hello.yaml --name hello`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := recording.LoadTranscriptFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			script, err := recording.ToScript(transcript, recording.ConvertOptions{
				Name:                name,
				DeduplicateMessages: dedupe,
			})
			if err != nil {
				return err
			}
			file := config.FromScript(script)
			a.logger.Debug("converted transcript", "entries", transcript.Len(), "steps", script.Len())

			if outputPath != "" {
				return config.SaveScriptFile(outputPath, file)
			}
			data, err := config.Marshal(file, config.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "", "Write the script here (.json selects JSON) instead of stdout")
	f.StringVar(&name, "name", "", "Script name (default: transcript file name)")
	f.StringVar(&format, "format", string(config.FormatYAML), "Stdout format (yaml, json)")
	f.BoolVar(&dedupe, "dedupe", false, "Drop a received message identical to the one before it")
	return cmd
}
