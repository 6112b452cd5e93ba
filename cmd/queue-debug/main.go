// queue-debug runs queue operations locally against the real project:
// list queued entries, run one sweep, or drop a stuck entry. Useful when
// diagnosing why an activity never got processed.
//
// Usage:
//
//	queue-debug -list
//	queue-debug -sweep -batch-size 5
//	queue-debug -drop 12345678
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/processor"
)

func main() {
	list := flag.Bool("list", false, "list queued entries and exit")
	sweep := flag.Bool("sweep", false, "run one queue sweep")
	drop := flag.String("drop", "", "delete the queue entry for this activity ID")
	batchSize := flag.Int("batch-size", 0, "override the sweep batch size")
	flag.Parse()

	if !*list && !*sweep && *drop == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "service init: %v\n", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger("queue-debug", svc.Config)
	proc := processor.New(svc.DB, svc.Source, svc.Weather, svc.Pub, svc.Config, logger)

	switch {
	case *drop != "":
		if err := proc.DeleteQueuedActivity(ctx, *drop); err != nil {
			fmt.Fprintf(os.Stderr, "drop %s: %v\n", *drop, err)
			os.Exit(1)
		}
		fmt.Printf("Dropped queue entry %s\n", *drop)

	case *list:
		limit := *batchSize
		if limit <= 0 {
			limit = 100
		}
		entries, err := proc.GetQueuedActivities(ctx, time.Now(), limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("Queue is empty")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACTIVITY\tUSER\tQUEUED\tRETRIES\tBATCH\tPROCESSING\tLAST ERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%v\t%s\n",
				e.ID, e.UserID, e.DateQueued.Format(time.RFC3339),
				e.RetryCount, e.Batch, e.Processing, e.QueueError)
		}
		w.Flush()

	case *sweep:
		result, err := proc.ProcessQueuedActivities(ctx, *batchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sweep: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sweep done: selected=%d processed=%d retried=%d dropped=%d\n",
			result.Selected, result.Processed, result.Retried, result.Dropped)
	}
}
