package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"boardcore/internal/blob"
	"boardcore/internal/board"
	"boardcore/internal/core"
	"boardcore/internal/project"
	"boardcore/pkg/domain"
)

var newCmd = &cobra.Command{
	Use:   "new [dirname]",
	Short: "Create a board with the default outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

var infoCmd = &cobra.Command{
	Use:   "info [dirname]",
	Short: "Print a summary of a board",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var checkCmd = &cobra.Command{
	Use:   "check [dirname]",
	Short: "Attach a board to its project and report airwires and ERC messages",
	Long: `Attaches the board to the project, which rebuilds every airwire and
registers an ERC message per unplaced component. Exits non-zero when error
messages are present, or any message with --strict.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var copyCmd = &cobra.Command{
	Use:   "copy [src-dirname] [dst-dirname]",
	Short: "Copy a board into a new directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint [dirname]",
	Short: "Store a snapshot of a board in the snapshot store",
	Long: `Stores the board record in the snapshot store selected by
BOARDCORE_STORAGE_DRIVER (memory|sqlite|postgres).`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckpoint,
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "List stored board snapshots",
	Args:  cobra.NoArgs,
	RunE:  runCheckpoints,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [board-uuid] [dirname]",
	Short: "Write a stored snapshot into a board directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runRestore,
}

func openBoard(ctx context.Context, p *project.Project, dirName string) (*board.Board, error) {
	return board.Open(ctx, p, p.BoardDirectory(dirName), board.WithLogger(appLogger()))
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	dirName := args[0]
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = dirName
	}
	b, err := createBoard(ctx, p, dirName, name)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.AddDefaultContent(); err != nil {
		return err
	}
	if err := b.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created board %q (%s) in %s\n", b.Name(), b.UUID(), b.Directory().Path())
	return nil
}

// createBoard returns an empty board in dirName, refusing to overwrite an
// existing one.
func createBoard(ctx context.Context, p *project.Project, dirName, name string) (*board.Board, error) {
	dir := p.BoardDirectory(dirName)
	exists, err := dir.Exists(ctx, board.BoardFile)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: board directory %s", blob.ErrExists, dir.Path())
	}
	return board.New(p, dir, dirName, name, board.WithLogger(appLogger())), nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	b, err := openBoard(ctx, p, args[0])
	if err != nil {
		return err
	}
	defer b.Close()
	printInfo(cmd.OutOrStdout(), b)
	return nil
}

func printInfo(w io.Writer, b *board.Board) {
	fmt.Fprintf(w, "board:        %s\n", b.Name())
	fmt.Fprintf(w, "uuid:         %s\n", b.UUID())
	fmt.Fprintf(w, "directory:    %s\n", b.Directory().Path())
	fmt.Fprintf(w, "devices:      %d\n", len(b.Devices()))
	fmt.Fprintf(w, "net segments: %d\n", len(b.NetSegments()))
	fmt.Fprintf(w, "planes:       %d\n", len(b.Planes()))
	fmt.Fprintf(w, "polygons:     %d\n", len(b.Polygons()))
	fmt.Fprintf(w, "texts:        %d\n", len(b.StrokeTexts()))
	fmt.Fprintf(w, "holes:        %d\n", len(b.Holes()))
	fmt.Fprintf(w, "inner layers: %d\n", b.LayerStack().InnerLayers)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	b, err := openBoard(ctx, p, args[0])
	if err != nil {
		return err
	}
	defer b.Close()
	svc := core.NewInMemoryService(core.WithLogger(appLogger()))
	// Detaching would move the board directory out of the project.
	if err := svc.AttachBoard(ctx, b); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	counts := make(map[string]int)
	for _, aw := range b.AirWires() {
		counts[aw.NetSignal().Name()]++
	}
	signals := make([]string, 0, len(counts))
	for name := range counts {
		signals = append(signals, name)
	}
	sort.Strings(signals)
	for _, name := range signals {
		fmt.Fprintf(out, "airwires %s: %d\n", name, counts[name])
	}

	messages := p.ERCMessages().Messages()
	sort.Slice(messages, func(i, j int) bool { return messages[i].Text() < messages[j].Text() })
	for _, m := range messages {
		fmt.Fprintf(out, "[%s] %s\n", m.Severity(), m.Text())
	}
	strict, _ := cmd.Flags().GetBool("strict")
	bySeverity := p.ERCMessages().Count()
	failing := bySeverity[domain.SeverityError]
	if strict {
		failing += bySeverity[domain.SeverityWarn]
	}
	if failing > 0 {
		return fmt.Errorf("%d erc message(s) need attention", failing)
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func runCopy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	src, err := openBoard(ctx, p, args[0])
	if err != nil {
		return err
	}
	defer src.Close()
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = args[1]
	}
	dst, err := createBoard(ctx, p, args[1], name)
	if err != nil {
		return err
	}
	defer dst.Close()
	if err := dst.CopyFrom(src); err != nil {
		return fmt.Errorf("copy board: %w", err)
	}
	if err := dst.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "copied %q to %q (%s)\n", src.Name(), dst.Name(), dst.UUID())
	return nil
}

func openService(ctx context.Context) (*core.Service, func(), error) {
	store, err := core.OpenSnapshotStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot store: %w", err)
	}
	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return core.NewService(store, core.WithLogger(appLogger())), closeStore, nil
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	b, err := openBoard(ctx, p, args[0])
	if err != nil {
		return err
	}
	defer b.Close()
	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := svc.AttachBoard(ctx, b); err != nil {
		return err
	}
	info, err := svc.Checkpoint(ctx, b.UUID())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s %q %d bytes\n", info.BoardID, info.Name, info.Size)
	return nil
}

func runCheckpoints(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	infos, err := svc.Checkpoints(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n", info.BoardID, info.Name, info.Size, info.SavedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	dir := p.BoardDirectory(args[1])
	if exists, err := dir.Exists(ctx, board.BoardFile); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: board directory %s", blob.ErrExists, dir.Path())
	}
	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	b, err := svc.Restore(ctx, p, args[0], dir, board.WithLogger(appLogger()))
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %q into %s\n", b.Name(), dir.Path())
	return nil
}
