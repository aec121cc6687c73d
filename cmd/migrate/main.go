package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"saha.org/internal/auth"
	"saha.org/internal/config"
	"saha.org/internal/migrate"
	"saha.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	_ = config.LoadDotEnv()
	var (
		dsn            = flag.String("dsn", os.Getenv("SAHA_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "", "directory with SQL migrations (default: embedded)")
		seedsPath      = flag.String("seeds", "", "directory with SQL seeds (default: embedded)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or SAHA_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|pending|adduser <email> <password> <user_type_id> <profile_id>]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mgr := newManager(store, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status", "pending":
		var names []string
		if flag.Arg(0) == "status" {
			names, err = mgr.Status(ctx)
		} else {
			names, err = mgr.Pending(ctx)
		}
		if err == nil {
			for _, item := range names {
				fmt.Println(item)
			}
		}
	case "adduser":
		err = addUser(ctx, store, flag.Args()[1:])
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// newManager reads the embedded schema unless override directories are given.
func newManager(store *pg.Store, migrationsPath, seedsPath string) *migrate.Manager {
	if migrationsPath == "" && seedsPath == "" {
		return migrate.NewManager(store.DB(), migrate.Schema(), migrate.MigrationsDir, migrate.SeedsDir)
	}
	var fsys fs.FS = os.DirFS("/")
	return migrate.NewManager(store.DB(), fsys, rooted(migrationsPath), rooted(seedsPath))
}

// rooted turns dir into a path relative to "/" for os.DirFS("/").
func rooted(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		log.Fatalf("resolve %s: %v", dir, err)
	}
	return strings.TrimPrefix(filepath.ToSlash(abs), "/")
}

func addUser(ctx context.Context, store *pg.Store, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: adduser <email> <password> <user_type_id> <profile_id>")
	}
	userType, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("user_type_id: %w", err)
	}
	profile, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("profile_id: %w", err)
	}
	hash, err := auth.HashPassword(args[1])
	if err != nil {
		return err
	}
	u := &auth.User{
		UserTypeID:          userType,
		PermissionProfileID: profile,
		Email:               args[0],
		PasswordHash:        hash,
		Active:              true,
		LoginEnabled:        true,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return err
	}
	fmt.Printf("created user %d\n", u.ID)
	return nil
}
