package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/phrazzld/lexis/internal/service/review"
	"github.com/spf13/pflag"
)

func newFlagSet(app *application, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(app.errOut)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// uuidFlag parses the named flag as a UUID. Malformed values are validation errors.
func uuidFlag(fs *pflag.FlagSet, name string) (uuid.UUID, error) {
	raw, err := fs.GetString(name)
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &review.ValidationError{Field: name, Message: err.Error(), Err: domain.ErrInvalidID}
	}
	return id, nil
}

func runMigrate(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "migrate")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if app.backend.db == nil {
		return errors.New("migrate requires a SQL database backend")
	}

	cmd := "up"
	var rest []string
	if fs.NArg() > 0 {
		cmd, rest = fs.Arg(0), fs.Args()[1:]
	}
	switch cmd {
	case "up", "down", "status", "version", "reset", "redo", "up-to", "down-to":
	default:
		return fmt.Errorf("%w: unknown migrate command %q", errUsage, cmd)
	}

	files, err := postgres.MigrationFiles()
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	app.logger.Debug("embedded migrations", slog.Any("files", files))

	return postgres.Migrate(ctx, app.backend.db, app.logger, cmd, rest...)
}

func runAddItem(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "add-item")
	term := fs.String("term", "", "word or phrase to study (required)")
	translation := fs.String("translation", "", "translation shown on review")
	fs.String("owner", "", "owning user ID; omit to share the item with every user")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var owner *uuid.UUID
	if fs.Changed("owner") {
		id, err := uuidFlag(fs, "owner")
		if err != nil {
			return err
		}
		owner = &id
	}

	item, err := domain.NewVocabularyItem(owner, *term, *translation)
	if err != nil {
		return &review.ValidationError{Field: "term", Message: err.Error()}
	}
	if err := app.backend.stores.Vocabulary.Create(ctx, item); err != nil {
		return fmt.Errorf("%w: failed to create item: %w", domain.ErrStorage, err)
	}

	app.logger.Info("vocabulary item created", slog.String("item_id", item.ID.String()))
	return app.printJSON(item)
}

func runQueue(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "queue")
	fs.String("user", "", "user ID (required)")
	limit := fs.Int("limit", 0, "maximum number of items (0 means the configured default)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	userID, err := uuidFlag(fs, "user")
	if err != nil {
		return err
	}

	queue, err := app.service.GetReviewQueue(ctx, userID, *limit)
	if err != nil {
		return err
	}
	return app.printJSON(queue)
}

func runReview(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "review")
	fs.String("user", "", "user ID (required)")
	fs.String("item", "", "vocabulary item ID (required)")
	gradeFlag := fs.String("grade", "", "again, hard, good, easy or 0-3 (required)")
	responseMs := fs.Int("response-ms", 0, "time taken to answer, in milliseconds")
	isNew := fs.Bool("new", false, "restart the item's schedule from the defaults")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	userID, err := uuidFlag(fs, "user")
	if err != nil {
		return err
	}
	itemID, err := uuidFlag(fs, "item")
	if err != nil {
		return err
	}
	if *gradeFlag == "" {
		return fmt.Errorf("%w: --grade is required", errUsage)
	}
	grade, err := domain.ParseGrade(*gradeFlag)
	if err != nil {
		return &review.ValidationError{Field: "grade", Message: err.Error(), Err: domain.ErrInvalidGrade}
	}

	input := review.SubmitReviewInput{
		UserID:    userID,
		ItemID:    itemID,
		Grade:     grade,
		IsNewHint: *isNew,
	}
	if fs.Changed("response-ms") {
		input.ResponseTimeMs = responseMs
	}

	result, err := app.service.SubmitReview(ctx, input)
	if err != nil {
		return err
	}
	return app.printJSON(result)
}

func runPostpone(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "postpone")
	fs.String("user", "", "user ID (required)")
	fs.String("item", "", "vocabulary item ID (required)")
	days := fs.Int("days", 1, "number of days to postpone")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	userID, err := uuidFlag(fs, "user")
	if err != nil {
		return err
	}
	itemID, err := uuidFlag(fs, "item")
	if err != nil {
		return err
	}

	result, err := app.service.PostponeReview(ctx, userID, itemID, *days)
	if err != nil {
		return err
	}
	return app.printJSON(result)
}

func runStats(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "stats")
	fs.String("user", "", "user ID (required)")
	period := fs.String("period", string(domain.PeriodWeek), "24h, 7d, 30d or all")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	userID, err := uuidFlag(fs, "user")
	if err != nil {
		return err
	}

	stats, err := app.service.GetLearningStats(ctx, userID, *period)
	if err != nil {
		return err
	}
	return app.printJSON(stats)
}

func runUserStats(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet(app, "user-stats")
	fs.String("user", "", "user ID (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	userID, err := uuidFlag(fs, "user")
	if err != nil {
		return err
	}

	stats, err := app.service.GetUserStats(ctx, userID)
	if err != nil {
		return err
	}
	return app.printJSON(stats)
}
