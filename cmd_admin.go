package main

import (
	"context"
	"fmt"
	"strings"

	intdomain "digest-backend/internal/integration/domain"
	intrepo "digest-backend/internal/integration/repository"
	scheddomain "digest-backend/internal/schedule/domain"
	schedrepo "digest-backend/internal/schedule/repository"
	"digest-backend/internal/schedule/selector"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := migrate(db); err != nil {
			return err
		}
		log.Info("Database migrated")
		return nil
	},
}

var (
	connectUser      string
	connectToken     string
	connectWorkspace string
)

// connectCmd stores a workspace token obtained outside this service
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store a workspace integration token for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := migrate(db); err != nil {
			return err
		}
		repo := intrepo.NewIntegrationRepository(db)
		err = repo.Save(context.Background(), &intdomain.Integration{
			UserID:        connectUser,
			Provider:      intdomain.ProviderNotion,
			AccessToken:   connectToken,
			WorkspaceName: connectWorkspace,
		})
		if err != nil {
			return fmt.Errorf("failed to save integration: %w", err)
		}
		log.Info("Integration saved", zap.String("user_id", connectUser))
		return nil
	},
}

var (
	schedUser       string
	schedName       string
	schedRecurrence string
	schedWeekdays   []int
	schedDay        int
	schedStyle      string
	schedLength     string
	schedWindow     int
	schedFocus      []string
	schedActions    bool
	schedPriority   bool
	schedChat       string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage digest schedules",
}

// scheduleCreateCmd creates a schedule for local setups without the UI
var scheduleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a schedule",
	Long: `Creates an enabled schedule delivering to a Telegram chat.

Example:
  digest schedule create --user u1 --name "Weekly" --recurrence weekly \
    --weekdays 1 --chat @team_digest --action-items`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recurrence := scheddomain.Recurrence{
			Type:       scheddomain.RecurrenceType(strings.ToLower(schedRecurrence)),
			Weekdays:   schedWeekdays,
			DayOfMonth: schedDay,
		}
		if err := selector.Validate(recurrence); err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := migrate(db); err != nil {
			return err
		}

		s := &scheddomain.Schedule{
			UserID:     schedUser,
			Name:       schedName,
			Enabled:    true,
			Recurrence: scheddomain.MustJSON(recurrence),
			Summary: scheddomain.MustJSON(scheddomain.SummaryConfig{
				Style:              scheddomain.SummaryStyle(schedStyle),
				Length:             scheddomain.SummaryLength(schedLength),
				FocusTags:          schedFocus,
				ContentWindowDays:  schedWindow,
				IncludeActionItems: schedActions,
				IncludePriority:    schedPriority,
			}),
			Delivery: scheddomain.MustJSON(map[string]scheddomain.ChannelConfig{
				scheddomain.ChannelTelegram: {Enabled: true, Address: schedChat},
			}),
		}
		if err := schedrepo.NewGormScheduleRepository(db).Create(context.Background(), s); err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		fmt.Println(s.ID)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectUser, "user", "", "Owner id (required)")
	connectCmd.Flags().StringVar(&connectToken, "token", "", "Workspace integration token (required)")
	connectCmd.Flags().StringVar(&connectWorkspace, "workspace", "", "Workspace display name")
	_ = connectCmd.MarkFlagRequired("user")
	_ = connectCmd.MarkFlagRequired("token")

	f := scheduleCreateCmd.Flags()
	f.StringVar(&schedUser, "user", "", "Owner id (required)")
	f.StringVar(&schedName, "name", "Digest", "Schedule name")
	f.StringVar(&schedRecurrence, "recurrence", "daily", "daily, weekly or monthly")
	f.IntSliceVar(&schedWeekdays, "weekdays", nil, "Weekdays for weekly schedules (0=Sunday)")
	f.IntVar(&schedDay, "day", 0, "Day of month for monthly schedules")
	f.StringVar(&schedStyle, "style", string(scheddomain.StyleExecutive), "executive, detailed or bullet")
	f.StringVar(&schedLength, "length", string(scheddomain.LengthMedium), "short, medium or long")
	f.IntVar(&schedWindow, "window", scheddomain.DefaultContentWindowDays, "Content window in days")
	f.StringSliceVar(&schedFocus, "focus", nil, "Focus tags")
	f.BoolVar(&schedActions, "action-items", false, "Include an action items section")
	f.BoolVar(&schedPriority, "priority", false, "Mark item priority")
	f.StringVar(&schedChat, "chat", "", "Telegram chat id or @channel (required)")
	_ = scheduleCreateCmd.MarkFlagRequired("user")
	_ = scheduleCreateCmd.MarkFlagRequired("chat")

	scheduleCmd.AddCommand(scheduleCreateCmd)
}
