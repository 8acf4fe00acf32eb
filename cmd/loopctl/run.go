package main

import (
	"fmt"
	"time"

	baselooper "github.com/joeycumines/go-baselooper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a demo Looper/Handler pipeline and dispatch a batch of messages",
	RunE:  runRun,
}

const msgWhatPing uint32 = 'PING'

type echoHandler struct {
	baselooper.HandlerBase
	name   string
	onEcho func(report string)
}

func (h *echoHandler) OnMessageReceived(msg *baselooper.Message) {
	seq, _ := msg.FindInt32("seq")
	h.onEcho(fmt.Sprintf("%s received seq=%d", h.name, seq))
}

func runRun(cmd *cobra.Command, args []string) error {
	handlerCount := viper.GetInt("handlers")
	messageCount := viper.GetInt("messages")
	if handlerCount <= 0 {
		handlerCount = 1
	}

	roster := baselooper.NewRoster()
	looper := baselooper.NewLooper(baselooper.WithLooperName("loopctl-run"))
	if err := looper.Start(false); err != nil {
		return fmt.Errorf("starting looper: %w", err)
	}
	defer looper.Stop()

	reports := make(chan string, handlerCount*messageCount)
	onEcho := func(report string) { reports <- report }
	ids := make([]baselooper.HandlerId, handlerCount)
	for i := 0; i < handlerCount; i++ {
		h := &echoHandler{name: fmt.Sprintf("handler-%d", i), onEcho: onEcho}
		ids[i] = baselooper.RegisterHandler(roster, looper, h)
	}

	for i := 0; i < messageCount; i++ {
		target := ids[i%len(ids)]
		msg := roster.NewMessage(target, msgWhatPing)
		msg.SetInt32("seq", int32(i))
		if err := msg.Post(); err != nil {
			return fmt.Errorf("posting message %d: %w", i, err)
		}
	}

	received := 0
	timeout := time.After(5 * time.Second)
	for received < messageCount {
		select {
		case report := <-reports:
			if verbose {
				fmt.Println(report)
			}
			received++
		case <-timeout:
			return fmt.Errorf("timed out after receiving %d/%d messages", received, messageCount)
		}
	}

	metrics := looper.Metrics()
	fmt.Printf("dispatched %d messages across %d handlers (p50=%s p99=%s)\n",
		metrics.DispatchCount, handlerCount, metrics.P50Dispatch, metrics.P99Dispatch)
	return nil
}
