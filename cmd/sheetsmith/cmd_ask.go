package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
)

var (
	askTarget   string
	askDryRun   bool
	askProvider string
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask the assistant and apply the resulting changes",
	Long: `Sends one prompt through the assistant. Changes are applied unless --dry-run
is given, in which case they are only proposed.

Example:
  sheetsmith ask --campaign demo --user dm "dale a Kaelden una espada larga +1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTarget, "target", "t", "", "Target character id")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "Propose changes without writing them")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "Preferred model provider")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireIdentity(); err != nil {
		return err
	}
	if askProvider != "" {
		cfg.Provider = askProvider
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	apply := !askDryRun
	req := assistant.Request{
		CampaignID:        campaignID,
		UserID:            userID,
		Prompt:            strings.Join(args, " "),
		TargetCharacterID: askTarget,
		Apply:             &apply,
		Mode:              assistant.ModeNormal,
	}
	logger.Debug("ask", zap.String("campaign", campaignID), zap.String("user", userID), zap.Bool("apply", apply))

	resp, err := a.service.Handle(ctx, req)
	if err != nil {
		return err
	}
	return renderResponse(cmd.OutOrStdout(), resp)
}
