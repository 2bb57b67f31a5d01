package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
)

var (
	trainTarget  string
	trainSubmode string
	trainSession string
)

var trainCmd = &cobra.Command{
	Use:   "train [prompt]",
	Short: "Practice writing prompts without touching any sheet",
	Long: `Training mode never writes to the database.

  prompt_coach  grades a prompt and suggests a template (default)
  sandbox       generates a practice item, or previews what a prompt would do
                to --target

Examples:
  sheetsmith train --campaign demo --user u1 "una espada que brilla"
  sheetsmith train --campaign demo --user u1 --submode sandbox "genera un reto"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainTarget, "target", "t", "", "Target character id")
	trainCmd.Flags().StringVar(&trainSubmode, "submode", string(assistant.SubmodeCoach), "prompt_coach or sandbox")
	trainCmd.Flags().StringVar(&trainSession, "session", "", "Sandbox session id (defaults to the user)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if err := requireIdentity(); err != nil {
		return err
	}
	submode := assistant.TrainingSubmode(trainSubmode)
	if submode != assistant.SubmodeCoach && submode != assistant.SubmodeSandbox {
		return fmt.Errorf("unknown submode %q", trainSubmode)
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.service.Handle(ctx, assistant.Request{
		CampaignID:        campaignID,
		UserID:            userID,
		SessionID:         trainSession,
		Prompt:            strings.Join(args, " "),
		TargetCharacterID: trainTarget,
		Mode:              assistant.ModeTraining,
		TrainingSubmode:   submode,
	})
	if err != nil {
		return err
	}
	return renderResponse(cmd.OutOrStdout(), resp)
}
