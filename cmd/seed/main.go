package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

type account struct {
	username string
	password string
	role     string
	name     string
	subject  string
}

// Demo accounts for development; replace before any real deployment.
var demoAccounts = []account{
	{"MeghaShinde", "admin123", roster.RoleAdmin, "Megha Shinde", ""},
	{"saloni", "teach123", roster.RoleTeacher, "Saloni Purkar", "Network & Info Security"},
	{"ashwini", "teach456", roster.RoleTeacher, "Ashwini Patil", "Class Teacher"},
	{"jyoti", "teach789", roster.RoleTeacher, "Jyoti Chandwade", "Mobile App Dev"},
	{"vikas", "stud123", roster.RoleStudent, "Vikas Gaikwad", ""},
	{"vedant", "stud456", roster.RoleStudent, "Vedant Shivade", ""},
	{"rushad", "stud789", roster.RoleStudent, "Rushad Adikane", ""},
	{"divesh", "stud101", roster.RoleStudent, "Divesh More", ""},
}

// Seed applies the schema and inserts the demo accounts when the users
// table is empty.
func main() {
	cfg := config.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logrus.Fatalf("migrate failed: %v", err)
	}

	users := roster.NewRepository(db.Client)
	for _, role := range []string{roster.RoleAdmin, roster.RoleTeacher, roster.RoleStudent} {
		n, err := users.CountByRole(ctx, role)
		if err != nil {
			logrus.Fatalf("count %s failed: %v", role, err)
		}
		if n > 0 {
			logrus.Infof("users table already populated, nothing to do")
			return
		}
	}

	for _, acct := range demoAccounts {
		hash, err := auth.HashPassword(acct.password)
		if err != nil {
			logrus.Fatalf("hash failed: %v", err)
		}
		u := roster.User{Username: acct.username, Password: hash, Role: acct.role, Name: acct.name}
		if acct.subject != "" {
			subject := acct.subject
			u.Subject = &subject
		}
		if _, err := users.Create(ctx, u); err != nil {
			logrus.Fatalf("seed %s failed: %v", acct.username, err)
		}
		logrus.WithFields(logrus.Fields{"user": acct.username, "role": acct.role}).Info("seeded")
	}
	logrus.Infof("seeded %d demo accounts", len(demoAccounts))
}
