package tui_test

import (
	"context"
	"fmt"

	"mediafetch/internal/control"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/ui/tui"
)

func ExampleTUI() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := tui.NewTUI("demo-channel", "./downloads")
	view.Start()

	// Keys pressed in the TUI raise the skip flag or stop the run.
	flag := &control.Flag{}
	go control.Dispatch(ctx, view.Events(), flag, cancel, nil)

	engine, err := fetcher.New(fetcher.Deps{
		// Source, Checkpoints, Storage and Transfer omitted.
		Flag:     flag,
		Reporter: view,
	}, fetcher.Options{})
	if err != nil {
		view.Stop()
		fmt.Println(err)
		return
	}

	stats, runErr := engine.Run(ctx)
	if err := view.Wait(); err != nil {
		fmt.Println("tui:", err)
	}
	fmt.Println(stats.Downloaded, runErr)
}
