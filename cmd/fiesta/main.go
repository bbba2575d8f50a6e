// Command fiesta is the terminal front end for the festival catalog: it
// browses published records, drives the moderation workflow, and uploads
// images through the ingestion pipeline.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fiesta/internal/admin"
	"fiesta/internal/catalog"
	"fiesta/internal/config"
	"fiesta/internal/metrics"
	"fiesta/internal/storage/blobstore"
	"fiesta/internal/submissions"
	"fiesta/internal/upload"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// app wires the stores and the upload pipeline once per invocation.
type app struct {
	cfg       config.Config
	store     *catalog.Store
	queue     *submissions.Queue
	favorites *catalog.Favorites
	session   *admin.Session
	uploader  *upload.Uploader
	batch     *upload.BatchUploader
}

func loadConfig(configFile string) (config.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, ".fiesta", "config.yaml"))
		_ = v.ReadInConfig() // optional
	}

	for key, env := range map[string]string{
		"cloud_name":     "CLOUDINARY_CLOUD_NAME",
		"upload_preset":  "CLOUDINARY_UPLOAD_PRESET",
		"api_key":        "CLOUDINARY_API_KEY",
		"api_secret":     "CLOUDINARY_API_SECRET",
		"signature_url":  "FIESTA_SIGNATURE_URL",
		"data_dir":       "FIESTA_DATA_DIR",
		"admin_user":     "FIESTA_ADMIN_USER",
		"admin_password": "FIESTA_ADMIN_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return config.Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return config.Normalize(cfg), nil
}

func newApp(configFile string) (*app, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	persistence, err := blobstore.NewFilesystemStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	observer, err := metrics.NewPrometheusObserver("fiesta", nil)
	if err != nil {
		return nil, err
	}

	store := catalog.NewStore(persistence, observer)
	if installed := catalog.SeedIfEmpty(store); installed > 0 {
		fmt.Fprintf(os.Stderr, "%s installed %d starter festivals\n", cyan("fiesta:"), installed)
	}

	uploader := upload.NewUploader(cfg, upload.NewNegotiator(cfg), observer)
	return &app{
		cfg:       cfg,
		store:     store,
		queue:     submissions.NewQueue(store, persistence, observer),
		favorites: catalog.NewFavorites(persistence, observer),
		session:   admin.NewSession(cfg.AdminUser, cfg.AdminPassword, persistence),
		uploader:  uploader,
		batch:     upload.NewBatchUploader(uploader),
	}, nil
}

// requireAdmin guards moderation commands behind the session gate.
func (a *app) requireAdmin() error {
	if !a.session.LoggedIn() {
		return fmt.Errorf("admin login required, run %s first", bold("fiesta login"))
	}
	return nil
}

func main() {
	var configFile string
	var application *app

	root := &cobra.Command{
		Use:           "fiesta",
		Short:         "Browse, submit and moderate festival listings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			application, err = newApp(configFile)
			return err
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml")

	root.AddCommand(
		newListCmd(&application),
		newShowCmd(&application),
		newAddCmd(&application),
		newEditCmd(&application),
		newDeleteCmd(&application),
		newJoinCmd(&application),
		newRateCmd(&application),
		newFavoriteCmd(&application),
		newSubmitCmd(&application),
		newPendingCmd(&application),
		newApproveCmd(&application),
		newRejectCmd(&application),
		newUploadCmd(&application),
		newLoginCmd(&application),
		newLogoutCmd(&application),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
		os.Exit(1)
	}
}

// readFiles loads every path into an in-memory upload payload.
func readFiles(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, upload.File{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

// uploadImages runs the batch pipeline and applies the partial-failure
// policy: zero successes is a total failure, and a partial batch is refused
// so the caller can retry it whole, unless allowPartial is set.
func (a *app) uploadImages(cmd *cobra.Command, paths []string, allowPartial bool) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files, err := readFiles(paths)
	if err != nil {
		return nil, err
	}

	result := a.batch.UploadAll(cmd.Context(), files)
	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", yellow("upload failed:"), f.Name, f.Cause.Message)
	}
	if result.AllFailed() {
		return nil, fmt.Errorf("failed to upload images, please try again")
	}
	if result.Partial() && !allowPartial {
		return nil, fmt.Errorf("%d of %d images failed to upload; retry the whole batch or pass --allow-partial",
			result.FailureCount(), len(files))
	}
	return result.URLs, nil
}

func shortList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
