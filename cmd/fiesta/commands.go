package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fiesta/internal/catalog"
)

// draftFlags collects the festival fields shared by add, edit and submit.
type draftFlags struct {
	name        string
	location    string
	month       string
	description string
	category    string
	attendees   string
	images      []string
	photos      []string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "festival name")
	cmd.Flags().StringVar(&f.location, "location", "", "city or province")
	cmd.Flags().StringVar(&f.month, "month", "", "month the festival is held")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().StringVar(&f.category, "category", string(catalog.CategoryCultural),
		"one of Religious, Cultural, Historical, Nature")
	cmd.Flags().StringVar(&f.attendees, "attendees", "0", "expected attendees")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "already-hosted image URL (repeatable)")
	cmd.Flags().StringArrayVar(&f.photos, "photo", nil, "local image file to upload (repeatable)")
}

// draft assembles a catalog draft, uploading any local photos first.
// Non-numeric attendee input degrades to zero at this boundary.
func (f *draftFlags) draft(cmd *cobra.Command, a *app, allowPartial bool) (catalog.Draft, error) {
	attendees, err := strconv.Atoi(f.attendees)
	if err != nil {
		attendees = 0
	}

	urls, err := a.uploadImages(cmd, f.photos, allowPartial)
	if err != nil {
		return catalog.Draft{}, err
	}

	return catalog.Draft{
		Name:              f.name,
		Location:          f.location,
		Month:             f.month,
		Description:       f.description,
		Category:          catalog.Category(f.category),
		ExpectedAttendees: attendees,
		Images:            append(f.images, urls...),
	}, nil
}

func printFestival(f catalog.Festival) {
	fmt.Printf("%s %s\n", bold(f.Name), cyan("("+f.ID+")"))
	fmt.Printf("  %s, %s %d (%s)\n", f.Location, f.Month, f.Year, f.Category)
	if f.Description != "" {
		fmt.Printf("  %s\n", f.Description)
	}
	fmt.Printf("  rating %.1f, %d joined, expecting %d\n", f.Rating, len(f.JoinedUsers), f.ExpectedAttendees)
	fmt.Printf("  images: %s\n", shortList(f.ImageURLs))
}

func newListCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published festivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			festivals := (*a).store.List()
			if len(festivals) == 0 {
				fmt.Println("no festivals published yet")
				return nil
			}
			for _, f := range festivals {
				printFestival(f)
			}
			return nil
		},
	}
}

func newShowCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one festival",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			festival, ok := (*a).store.GetByID(args[0])
			if !ok {
				return fmt.Errorf("no festival with id %q", args[0])
			}
			printFestival(festival)
			return nil
		},
	}
}

func newAddCmd(a **app) *cobra.Command {
	flags := &draftFlags{}
	var allowPartial bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a festival directly (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}
			if flags.name == "" {
				return fmt.Errorf("--name is required")
			}
			draft, err := flags.draft(cmd, *a, allowPartial)
			if err != nil {
				return err
			}
			festival := (*a).store.Create(draft)
			fmt.Printf("%s published %s\n", green("ok:"), festival.ID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "accept a partially uploaded image batch")
	return cmd
}

func newEditCmd(a **app) *cobra.Command {
	flags := &draftFlags{}
	var allowPartial bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a published festival (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}

			patch := catalog.Patch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &flags.name
			}
			if cmd.Flags().Changed("location") {
				patch.Location = &flags.location
			}
			if cmd.Flags().Changed("month") {
				patch.Month = &flags.month
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &flags.description
			}
			if cmd.Flags().Changed("category") {
				category := catalog.Category(flags.category)
				patch.Category = &category
			}
			if cmd.Flags().Changed("attendees") {
				attendees, err := strconv.Atoi(flags.attendees)
				if err != nil {
					attendees = 0
				}
				patch.ExpectedAttendees = &attendees
			}
			if cmd.Flags().Changed("image") || cmd.Flags().Changed("photo") {
				urls, err := (*a).uploadImages(cmd, flags.photos, allowPartial)
				if err != nil {
					return err
				}
				// The final list fully replaces the record's images so
				// removed ones actually disappear.
				images := append(flags.images, urls...)
				patch.Images = &images
			}

			if !(*a).store.Update(args[0], patch) {
				return fmt.Errorf("no festival with id %q", args[0])
			}
			fmt.Printf("%s updated %s\n", green("ok:"), args[0])
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "accept a partially uploaded image batch")
	return cmd
}

func newDeleteCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a published festival (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}
			if !(*a).store.Delete(args[0]) {
				fmt.Printf("%s nothing to delete for %q\n", yellow("note:"), args[0])
				return nil
			}
			fmt.Printf("%s deleted %s\n", green("ok:"), args[0])
			return nil
		},
	}
}

func newJoinCmd(a **app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "join <id>",
		Short: "Join a festival",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			if !(*a).store.Join(args[0], user) {
				return fmt.Errorf("no festival with id %q", args[0])
			}
			fmt.Printf("%s %s joined %s\n", green("ok:"), user, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "your identity, e.g. an email")
	return cmd
}

func newRateCmd(a **app) *cobra.Command {
	var user string
	var value float64
	cmd := &cobra.Command{
		Use:   "rate <id>",
		Short: "Rate a festival you joined",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			if value < 1 || value > 5 {
				return fmt.Errorf("--value must be between 1 and 5")
			}
			if !(*a).store.Rate(args[0], user, value) {
				return fmt.Errorf("join %s before rating it", args[0])
			}
			festival, _ := (*a).store.GetByID(args[0])
			fmt.Printf("%s %s now rates %.1f\n", green("ok:"), args[0], festival.Rating)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "your identity, e.g. an email")
	cmd.Flags().Float64Var(&value, "value", 0, "rating from 1 to 5")
	return cmd
}

func newFavoriteCmd(a **app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "favorite [id]",
		Short: "Toggle a favorite, or list favorites when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			favorites := (*a).favorites
			if len(args) == 0 {
				for _, id := range favorites.List(user) {
					fmt.Println(id)
				}
				if unread := favorites.UnreadCount(user); unread > 0 {
					fmt.Printf("%s %d new since last seen\n", yellow("note:"), unread)
				}
				favorites.MarkSeen(user)
				return nil
			}
			if _, ok := (*a).store.GetByID(args[0]); !ok {
				return fmt.Errorf("no festival with id %q", args[0])
			}
			if favorites.Toggle(user, args[0]) {
				fmt.Printf("%s favorited %s\n", green("ok:"), args[0])
			} else {
				fmt.Printf("%s unfavorited %s\n", green("ok:"), args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "your identity, e.g. an email")
	return cmd
}

func newSubmitCmd(a **app) *cobra.Command {
	flags := &draftFlags{}
	var by string
	var allowPartial bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Propose a festival for moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.name == "" {
				return fmt.Errorf("--name is required")
			}
			draft, err := flags.draft(cmd, *a, allowPartial)
			if err != nil {
				return err
			}
			submission := (*a).queue.Submit(draft, by)
			fmt.Printf("%s queued %s for review\n", green("ok:"), submission.ID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&by, "by", "", "submitter identity, e.g. an email")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "accept a partially uploaded image batch")
	return cmd
}

func newPendingCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List submissions awaiting moderation (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}
			(*a).queue.Refresh()
			pending := (*a).queue.Pending()
			if len(pending) == 0 {
				fmt.Println("nothing pending")
				return nil
			}
			for _, s := range pending {
				fmt.Printf("%s %s\n", bold(s.Name), cyan("("+s.ID+")"))
				fmt.Printf("  by %s at %s\n", s.SubmittedBy, s.SubmittedAt.Format("2006-01-02 15:04"))
				fmt.Printf("  images: %s\n", shortList(s.Images))
			}
			return nil
		},
	}
}

func newApproveCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <submission-id>",
		Short: "Approve a pending submission (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}
			festival, found := (*a).queue.Approve(args[0])
			if !found {
				return fmt.Errorf("no pending submission %q", args[0])
			}
			fmt.Printf("%s published %s\n", green("ok:"), festival.ID)
			return nil
		},
	}
}

func newRejectCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <submission-id>",
		Short: "Reject a pending submission (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAdmin(); err != nil {
				return err
			}
			if !(*a).queue.Reject(args[0]) {
				return fmt.Errorf("no pending submission %q", args[0])
			}
			fmt.Printf("%s rejected %s\n", green("ok:"), args[0])
			return nil
		},
	}
}

func newUploadCmd(a **app) *cobra.Command {
	var allowPartial bool
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload images and print their hosted URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := (*a).uploadImages(cmd, args, allowPartial)
			if err != nil {
				return err
			}
			for _, url := range urls {
				fmt.Println(url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "accept a partially uploaded image batch")
	return cmd
}

func newLoginCmd(a **app) *cobra.Command {
	var user, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !(*a).session.Login(user, password) {
				return fmt.Errorf("invalid credentials")
			}
			fmt.Printf("%s logged in\n", green("ok:"))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newLogoutCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out the administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			(*a).session.Logout()
			fmt.Printf("%s logged out\n", green("ok:"))
			return nil
		},
	}
}
