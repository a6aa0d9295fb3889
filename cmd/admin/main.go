// Command main manages admin accounts and the schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"lukeblog/internal/config"
	"lukeblog/internal/database"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"gorm.io/gorm"
)

const usage = `Usage:
  admin createsuperuser <username> <password>  - Create a superuser
  admin promote <user_id>                      - Give a user staff access to the admin sites
  admin demote <user_id>                       - Remove staff and superuser access
  admin list-admins                            - List staff and superusers
  admin migrate                                - Create or update the schema`

var errUsage = errors.New("invalid arguments")

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := run(context.Background(), db, os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, db *gorm.DB, out io.Writer, args []string) error {
	users := repository.NewUserRepository(db)

	switch args[0] {
	case "createsuperuser":
		if len(args) < 3 {
			return errUsage
		}
		return createSuperuser(ctx, users, out, args[1], args[2])
	case "promote":
		if len(args) < 2 {
			return errUsage
		}
		return setStaff(ctx, users, out, args[1], true)
	case "demote":
		if len(args) < 2 {
			return errUsage
		}
		return setStaff(ctx, users, out, args[1], false)
	case "list-admins":
		return listAdmins(ctx, users, out)
	case "migrate":
		if err := database.Migrate(db); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "Schema is up to date")
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func createSuperuser(ctx context.Context, users repository.UserRepository, out io.Writer, username, password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		Username:    username,
		Password:    hash,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("create user: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Created superuser %s (ID: %d)\n", user.Username, user.ID)
	return nil
}

func setStaff(ctx context.Context, users repository.UserRepository, out io.Writer, rawID string, staff bool) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", rawID)
	}
	user, err := users.GetByID(ctx, uint(id))
	if err != nil {
		return err
	}

	if user.IsStaff == staff && (staff || !user.IsSuperuser) {
		_, _ = fmt.Fprintf(out, "User %s (ID: %d) is unchanged\n", user.Username, user.ID)
		return nil
	}
	user.IsStaff = staff
	if !staff {
		user.IsSuperuser = false
	}
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	verb := "Promoted"
	if !staff {
		verb = "Demoted"
	}
	_, _ = fmt.Fprintf(out, "%s %s (ID: %d)\n", verb, user.Username, user.ID)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository, out io.Writer) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(admins) == 0 {
		_, _ = fmt.Fprintln(out, "No admins found")
		return nil
	}
	for _, u := range admins {
		role := "staff"
		if u.IsSuperuser {
			role = "superuser"
		}
		_, _ = fmt.Fprintf(out, "%d\t%s\t%s\n", u.ID, u.Username, role)
	}
	return nil
}
