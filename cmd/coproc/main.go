// Command coproc runs a small demo pool of coroutine tasks and reports
// their aggregate progress and per-processor stats once they finish.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/viant/coproc"
	"github.com/viant/coproc/policy"
)

func main() {
	var (
		workers  = flag.Int("workers", 4, "number of processors in the pool")
		tasks    = flag.Int("tasks", 10, "number of demo tasks to spawn")
		sleep    = flag.Duration("sleep", 20*time.Millisecond, "how long each demo task sleeps before finishing")
		failEach = flag.Int("fail-every", 0, "make every Nth spawned task fail, 0 disables")
		blocked  = flag.String("block", "", "comma separated task names to reject via policy")
		traceOut = flag.String("trace", "", "write OpenTelemetry spans to this file instead of discarding them")
	)
	flag.Parse()

	opts := []coproc.Option{coproc.WithWorkers(*workers)}
	if *traceOut != "" {
		opts = append(opts, coproc.WithTracing("coproc-cli", "0.0.1", *traceOut))
	}
	if *blocked != "" {
		opts = append(opts, coproc.WithPolicy(&policy.Policy{
			Mode:      policy.ModeAuto,
			BlockList: strings.Split(*blocked, ","),
		}))
	}

	srv := coproc.New(opts...)
	rt := srv.Runtime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rt.Start(ctx); err != nil {
		log.Fatalf("coproc: start: %v", err)
	}
	defer rt.Shutdown(context.Background())

	spawned := 0
	for i := 0; i < *tasks; i++ {
		i := i
		name := fmt.Sprintf("demo.task-%d", i)
		_, err := rt.Spawn(ctx, name, func(ctx context.Context) error {
			time.Sleep(*sleep)
			if *failEach > 0 && i%*failEach == 0 {
				return fmt.Errorf("synthetic failure on %s", name)
			}
			return nil
		})
		if err != nil {
			log.Printf("coproc: %s rejected: %v", name, err)
			continue
		}
		spawned++
	}

	waitForDrain(ctx, rt, spawned)

	p := rt.Progress()
	fmt.Printf("progress: total=%d completed=%d failed=%d running=%d pending=%d\n",
		p.TotalTasks, p.CompletedTasks, p.FailedTasks, p.RunningTasks, p.PendingTasks)

	for _, snap := range rt.Stats() {
		fmt.Printf("processor %s: switches=%d runnable=%d waiting=%d stolen=%d gc=%d\n",
			snap.ProcessorID, snap.SwitchCount, snap.RunnableSize, snap.WaitSize, snap.StealCount, snap.GCCount)
	}
}

// waitForDrain polls Progress until every spawned task has either completed
// or failed, or ctx is done.
func waitForDrain(ctx context.Context, rt *coproc.Runtime, total int) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p := rt.Progress()
			if p.CompletedTasks+p.FailedTasks >= total {
				return
			}
		}
	}
}
