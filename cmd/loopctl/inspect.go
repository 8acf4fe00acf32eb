package main

import (
	"fmt"
	"time"

	baselooper "github.com/joeycumines/go-baselooper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Run a short pipeline and print Roster/Metrics introspection",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	messageCount := viper.GetInt("messages")
	if messageCount <= 0 {
		messageCount = 5
	}

	roster := baselooper.NewRoster(baselooper.WithRecentDeliveries(messageCount))
	looper := baselooper.NewLooper(baselooper.WithLooperName("loopctl-inspect"))
	if err := looper.Start(false); err != nil {
		return fmt.Errorf("starting looper: %w", err)
	}
	defer looper.Stop()

	done := make(chan struct{}, messageCount)
	h := &echoHandler{name: "inspect", onEcho: func(string) { done <- struct{}{} }}
	id := baselooper.RegisterHandler(roster, looper, h)

	for i := 0; i < messageCount; i++ {
		msg := roster.NewMessage(id, msgWhatPing)
		msg.SetInt32("seq", int32(i))
		msg.SetString("note", fmt.Sprintf("inspect message %d", i))
		if err := msg.Post(); err != nil {
			return fmt.Errorf("posting message %d: %w", i, err)
		}
	}

	for i := 0; i < messageCount; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			return fmt.Errorf("timed out waiting for message %d", i)
		}
	}

	metrics := looper.Metrics()
	fmt.Printf("looper %q: dispatched=%d queue_depth=%d p50=%s p90=%s p99=%s\n",
		looper.Name(), metrics.DispatchCount, metrics.QueueDepth,
		metrics.P50Dispatch, metrics.P90Dispatch, metrics.P99Dispatch)

	fmt.Println("recent deliveries:")
	for _, d := range roster.RecentDeliveries() {
		fmt.Println(d)
	}
	return nil
}
