package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/config"
	"github.com/BrunoRangell/app-muran-sub008/internal/daemon"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/notify"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonSchedule     string
	flagDaemonCheck        time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
	flagDaemonWait         bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduled daily review with an HTTP/SSE API",
	Long: "Runs every configured platform's review on a cron schedule in the\n" +
		"configured timezone, catches up on a missed day, and serves the latest\n" +
		"reviews at /v1/reviews with live events at /v1/stream.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process, schedule and last batches",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

var daemonRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the running daemon to review every account now",
	RunE:  runDaemonRefresh,
}

func init() {
	dir := config.StateDir()
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(dir, "murand.pid"), "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(dir, "murand.log"), "Log file path for detached mode")

	daemonCmd.Flags().StringVar(&flagDaemonSchedule, "schedule", "", "Cron schedule (default: [review] schedule from config)")
	daemonCmd.Flags().DurationVar(&flagDaemonCheck, "check-interval", 5*time.Minute, "How often to catch up on a missed daily run")
	daemonCmd.Flags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonRefreshCmd.Flags().BoolVarP(&flagDaemonWait, "wait", "w", false, "Wait for the batch and print its tally")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd, daemonRefreshCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonRuntimeState is written next to the pid file so status and stop
// can find a daemon started with a non-default address.
type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Schedule  string    `json:"schedule"`
	Timezone  string    `json:"timezone"`
}

// daemonFiles owns the pid file and its JSON state sibling.
type daemonFiles struct {
	pidPath string
}

func (f daemonFiles) statePath() string { return f.pidPath + ".json" }

// running returns the daemon's pid. A stale pid file is reported with
// alive=false.
func (f daemonFiles) running() (pid int, alive bool, err error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(f.pidPath)
	if err != nil {
		return 0, false, err
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", f.pidPath)
	}
	return pid, processAlive(pid), nil
}

// ensureFree fails when another daemon holds the pid file and clears a
// stale one.
func (f daemonFiles) ensureFree() error {
	pid, alive, err := f.running()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case alive:
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	return nil
}

// claim writes the pid and state files for the current process.
func (f daemonFiles) claim(st daemonRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(f.pidPath), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pidPath, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f daemonFiles) release() {
	_ = os.Remove(f.pidPath)
	_ = os.Remove(f.statePath())
}

// addr prefers the address recorded by the running daemon.
func (f daemonFiles) addr(fallback string) string {
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(f.statePath())
	if err != nil {
		return fallback
	}
	var st daemonRuntimeState
	if json.Unmarshal(data, &st) != nil || st.Addr == "" {
		return fallback
	}
	return st.Addr
}

func currentDaemonFiles() daemonFiles {
	return daemonFiles{pidPath: flagDaemonPIDFile}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("invalid daemon launch mode")
	case flagDaemonDetach:
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

func startDaemonDetached() error {
	files := currentDaemonFiles()
	if err := files.ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(filterDetachArg(os.Args[1:]), "--child")...) //nolint:gosec // re-executes the current binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Reviews: http://%s/v1/reviews\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	files := currentDaemonFiles()
	if err := files.ensureFree(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	schedule := flagDaemonSchedule
	if schedule == "" {
		schedule = rt.cfg.Review.Schedule
	}
	loc := rt.cfg.Location()

	svc, err := daemon.New(daemon.Config{
		Addr:          flagDaemonAddr,
		Schedule:      schedule,
		Location:      loc,
		CheckInterval: flagDaemonCheck,
		MinRefreshGap: rt.cfg.MinRefreshGap(),
		EventsBuffer:  flagDaemonEventsBuffer,
	}, rt.svc, rt.store, newNotifier(rt.cfg))
	if err != nil {
		return err
	}

	if err := files.claim(daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		Schedule:  schedule,
		Timezone:  loc.String(),
	}); err != nil {
		return err
	}
	defer files.release()

	log.Printf("muran daemon listening on http://%s", flagDaemonAddr)
	log.Printf("reviewing %v on %q (%s)", rt.svc.Platforms(), schedule, loc)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newNotifier returns a Telegram notifier when configured, Nop otherwise.
func newNotifier(cfg config.Config) daemon.Notifier {
	if cfg.Notify.TelegramToken == "" || cfg.Notify.TelegramChatID == 0 {
		return notify.Nop{}
	}
	tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
	if err != nil {
		log.Printf("telegram disabled: %v", err)
		return notify.Nop{}
	}
	return tg
}

// daemonAPI calls the running daemon and decodes a JSON reply into out.
func daemonAPI(method, path string, timeout time.Duration, out any) error {
	files := currentDaemonFiles()
	pid, alive, err := files.running()
	if err != nil {
		return errors.New("daemon is not running")
	}
	if !alive {
		return fmt.Errorf("stale pid file (pid %d not alive)", pid)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, "http://"+files.addr(flagDaemonAddr)+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("refresh requested too recently, retry in %ss", resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode == http.StatusConflict {
		return errors.New("a review is already running, try again when it finishes")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("daemon returned HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	files := currentDaemonFiles()
	pid, alive, err := files.running()
	switch {
	case err != nil:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", files.addr(flagDaemonAddr))

	var st daemon.Status
	if err := daemonAPI(http.MethodGet, "/v1/status", 2*time.Second, &st); err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	fmt.Printf("  Schedule: %s (%s)\n", st.Schedule, st.Timezone)
	if st.LastRunAt.IsZero() {
		fmt.Println("  Last run: pending")
	} else {
		fmt.Printf("  Last run: %s (%d runs)\n", st.LastRunAt.Local().Format(time.RFC3339), st.RunCount)
	}
	if !st.NextRunAt.IsZero() {
		fmt.Printf("  Next run: %s\n", st.NextRunAt.Local().Format(time.RFC3339))
	}
	if st.Running {
		fmt.Println("  " + cli.RenderWarning("Reviewing now"))
	}
	if st.LastError != "" {
		fmt.Println("  " + cli.RenderWarning("Last error: "+st.LastError))
	}
	if len(st.Batches) > 0 {
		fmt.Println()
		fmt.Print(renderBatches(st.Batches))
	}
	return nil
}

func renderBatches(batches map[model.Platform]daemon.BatchSummary) string {
	platforms := make([]model.Platform, 0, len(batches))
	for p := range batches {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	rows := make([][]string, 0, len(platforms))
	for _, p := range platforms {
		b := batches[p]
		rows = append(rows, []string{
			p.Label(),
			b.ReviewDate,
			b.Trigger,
			strconv.Itoa(b.Succeeded),
			strconv.Itoa(b.NeedsAdjustment),
			strconv.Itoa(b.Failed),
			cli.FormatDuration(time.Duration(b.DurationMS) * time.Millisecond),
		})
	}
	return cli.RenderTable(cli.Table{
		Headers:   []string{"Platform", "Date", "Trigger", "Reviewed", "Adjust", "Failed", "Took"},
		LabelCols: 3,
		Rows:      rows,
	})
}

func runDaemonRefresh(_ *cobra.Command, _ []string) error {
	if !flagDaemonWait {
		if err := daemonAPI(http.MethodPost, "/v1/refresh", 5*time.Second, nil); err != nil {
			return err
		}
		fmt.Println("  Refresh started. Follow it with: muran daemon status")
		return nil
	}

	var batches []daemon.BatchSummary
	if err := daemonAPI(http.MethodPost, "/v1/refresh?wait=1", 10*time.Minute, &batches); err != nil {
		return err
	}
	byPlatform := make(map[model.Platform]daemon.BatchSummary, len(batches))
	for _, b := range batches {
		byPlatform[b.Platform] = b
	}
	fmt.Print(renderBatches(byPlatform))
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := currentDaemonFiles()
	pid, alive, err := files.running()
	if err != nil || !alive {
		files.release()
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	// A batch in flight finishes its current account before exiting.
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			files.release()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
