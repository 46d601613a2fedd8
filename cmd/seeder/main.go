package main

import (
	"context"
	"fmt"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/config"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/mauv0809/rivalry/internal/session"
)

type demoTeam struct {
	name    string
	admin   string
	players []string
}

var demoTeams = []demoTeam{
	{name: "Leones FC", admin: "demo-admin-leones", players: []string{"demo-player-leones-1", "demo-player-leones-2"}},
	{name: "Tigres CF", admin: "demo-admin-tigres", players: []string{"demo-player-tigres-1", "demo-player-tigres-2"}},
}

func main() {
	log.Info("Starting database seeder...")
	cfg := config.Load()
	ctx := context.Background()

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	teams := roster.New(db)
	ids := make([]string, 0, len(demoTeams))
	for _, d := range demoTeams {
		team, err := teams.CreateTeam(ctx, d.name, cfg.Timezone, "F7", d.admin)
		if err != nil {
			log.Fatalf("Failed to create team %s: %s", d.name, err)
		}
		for i, p := range d.players {
			role := roster.RolePlayer
			if i == 0 {
				role = roster.RoleSubAdmin
			}
			if _, err := teams.AddMember(ctx, team.ID, p, role, roster.StatusActive); err != nil {
				log.Fatalf("Failed to add %s to %s: %s", p, d.name, err)
			}
		}
		ids = append(ids, team.ID)
	}
	log.Info("Seeded demo teams", "count", len(ids))

	challenges := challenge.New(db, match.New(db))
	c, err := challenges.Send(ctx, ids[0], ids[1])
	if err != nil {
		log.Fatalf("Failed to send demo challenge: %s", err)
	}
	_, m, err := challenges.Respond(ctx, c.ID, challenge.StatusAccepted)
	if err != nil {
		log.Fatalf("Failed to accept demo challenge: %s", err)
	}
	log.Info("Seeded pending match", "id", m.ID)

	issuer := session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	fmt.Printf("match: %s\n", m.ID)
	for i, d := range demoTeams {
		for _, user := range append([]string{d.admin}, d.players...) {
			token, err := issuer.Issue(user)
			if err != nil {
				log.Fatalf("Failed to issue token for %s: %s", user, err)
			}
			fmt.Printf("%s (%s, team %s)\n  %s\n", user, d.name, ids[i], token)
		}
	}
}
