// Command audit-test drives the audit publisher with a deliberately small
// buffer so queue depth and drop metrics can be watched on /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"casestatus/internal/audit"
	platformMetrics "casestatus/internal/platform/metrics"
	id "casestatus/pkg/domain"
)

func main() {
	buffer := flag.Int("buffer", 10, "publisher queue size")
	flood := flag.Int("flood", 20, "events emitted without pausing")
	addr := flag.String("metrics-addr", ":9090", "address for the metrics endpoint")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := platformMetrics.NewRegistry()
	store := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(store,
		audit.WithAsyncBuffer(*buffer),
		audit.WithMetrics(audit.NewMetricsWithRegistry(reg)),
		audit.WithPublisherLogger(logger),
	)
	defer publisher.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", platformMetrics.HandlerFor(reg))
		srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		fmt.Printf("Metrics available at http://localhost%s/metrics\n", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("\n=== Audit Publisher Drill ===")

	fmt.Println("1. Emitting 5 paced lookups (should all succeed)...")
	for i := range 5 {
		if err := publisher.Emit(ctx, lookupEvent(i)); err != nil {
			fmt.Printf("   Event %d failed: %v\n", i+1, err)
		} else {
			fmt.Printf("   Event %d emitted\n", i+1)
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	fmt.Printf("\n2. Flooding with %d gate decisions (buffer size is %d)...\n", *flood, *buffer)
	dropped := 0
	for i := range *flood {
		if err := publisher.Emit(ctx, gateEvent(i)); err != nil {
			dropped++
		}
	}
	fmt.Printf("   Emitted %d events, %d dropped due to full buffer\n", *flood, dropped)
	time.Sleep(500 * time.Millisecond)

	fmt.Println("\n3. Checking store contents...")
	recent, err := store.ListRecent(ctx, 0)
	if err != nil {
		fmt.Printf("   List failed: %v\n", err)
	} else {
		fmt.Printf("   Events in store: %d\n", len(recent))
	}

	fmt.Println("\nFilter with: curl -s http://localhost" + *addr + "/metrics | grep casestatus_audit")
	fmt.Println("Press Ctrl+C to exit...")
	<-ctx.Done()
}

func lookupEvent(i int) audit.Event {
	return audit.Event{
		Action:    string(audit.EventCaseLookup),
		Subject:   fmt.Sprintf("drill-%d", i),
		Outcome:   "not_found",
		Reason:    "no_match",
		RequestID: uuid.New().String(),
	}
}

func gateEvent(i int) audit.Event {
	return audit.Event{
		Action:    string(audit.EventAdminAccessDenied),
		UserID:    id.UserID(uuid.New()),
		Outcome:   "denied",
		Reason:    "not_admin",
		RequestID: fmt.Sprintf("drill-%d", i),
	}
}
