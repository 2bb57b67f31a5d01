package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo campaign with a DM, two players and their characters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		demo, err := seedDemo(ctx, st)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, demo)
		}
		fmt.Fprintln(out, headerStyle.Render("Seeded "+demo.CampaignName))
		fmt.Fprintf(out, "campaign: %s\n", demo.CampaignID)
		for _, c := range demo.Characters {
			fmt.Fprintf(out, "  %s  %s (owner %s)\n", c.ID, c.Name, c.OwnerID)
		}
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf(
			"try: sheetsmith ask --campaign %s --user dm \"sube a Kaelden a nivel 5\"", demo.CampaignID)))
		return nil
	},
}

// demoCampaign is what seedDemo created.
type demoCampaign struct {
	CampaignID   string            `json:"campaignId"`
	CampaignName string            `json:"campaignName"`
	Characters   []sheet.Character `json:"characters"`
}

func seedDemo(ctx context.Context, st *store.SQLiteStore) (*demoCampaign, error) {
	camp := &sheet.Campaign{
		Name:        "La Marca del Este",
		Description: "Frontier campaign on the edge of the old kingdom.",
		OwnerID:     "dm",
	}
	if err := st.CreateCampaign(ctx, camp); err != nil {
		return nil, err
	}
	for _, m := range []sheet.Membership{
		{CampaignID: camp.ID, UserID: "dm", Role: sheet.RoleDM},
		{CampaignID: camp.ID, UserID: "u1", Role: sheet.RolePlayer},
		{CampaignID: camp.ID, UserID: "u2", Role: sheet.RolePlayer},
	} {
		if err := st.AddMember(ctx, m); err != nil {
			return nil, err
		}
	}

	chars := []sheet.Character{
		{
			CampaignID: camp.ID, OwnerID: "u1", Name: "Kaelden", Class: "Wizard", Race: "Elf",
			Level: 4, ArmorClass: 12, Speed: 30, MaxHP: 22, CurrentHP: 22, CharacterType: "character",
			Stats: patch.Stats{"str": 8, "dex": 14, "con": 13, "int": 17, "wis": 12, "cha": 10},
			Details: sheet.Details{
				Inventory: []sheet.Item{{ID: "staff", Name: "Bastón de roble", Category: "weapon", Equipped: true, Damage: "1d6 contundente"}},
				Spells:    map[string][]sheet.LearnedSpell{"level1": {{Name: "Magic Missile", Index: "magic-missile"}}},
			},
		},
		{
			CampaignID: camp.ID, OwnerID: "u2", Name: "Mira", Class: "Rogue", Race: "Halfling",
			Level: 3, ArmorClass: 14, Speed: 25, MaxHP: 18, CurrentHP: 18, CharacterType: "character",
			Stats: patch.Stats{"str": 10, "dex": 17, "con": 12, "int": 11, "wis": 13, "cha": 14},
		},
	}
	for i := range chars {
		if err := st.CreateCharacter(ctx, &chars[i]); err != nil {
			return nil, err
		}
	}

	for _, n := range []*sheet.Note{
		{CampaignID: camp.ID, AuthorID: "dm", Title: "Secreto", Body: "Mira es la heredera del trono.", Private: true},
		{CampaignID: camp.ID, AuthorID: "u1", Title: "Diario de Kaelden", Body: "Perdimos el mapa en el pantano."},
	} {
		if err := st.AddNote(ctx, n); err != nil {
			return nil, err
		}
	}

	return &demoCampaign{CampaignID: camp.ID, CampaignName: camp.Name, Characters: chars}, nil
}
