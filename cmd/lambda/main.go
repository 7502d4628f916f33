package main

import (
	"context"
	"log"
	"time"

	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Media-group state and deferred deletions live in process memory, so the
// function is deployed with a reserved concurrency of 1.

// deadlineMargin is kept free at the end of an invocation for the response
const deadlineMargin = time.Second

var (
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	// the cleanup is never run; the runtime freezes and discards the process
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiRouter, ok := container.Handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler proxies the webhook call through the router, then keeps the
// invocation alive until the deferred tasks it scheduled have run.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logger := container.Logger

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}

	settle(ctx, logger)

	logger.Info("Lambda response",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
	)
	return resp, err
}

// settle waits for pending deferred tasks and runs them early when the
// invocation deadline is near; a frozen process would never fire them.
func settle(ctx context.Context, logger *zap.Logger) {
	scheduler := container.Scheduler

	waitCtx := ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithDeadline(ctx, deadline.Add(-deadlineMargin))
		defer cancel()
	}
	if err := scheduler.Wait(waitCtx); err == nil {
		return
	}

	logger.Warn("Invocation deadline near, running deferred tasks now",
		zap.Int("pending", scheduler.Pending()))
	scheduler.Flush()
	if err := scheduler.Wait(ctx); err != nil {
		logger.Error("Deferred tasks did not finish before the deadline", zap.Error(err))
	}
}

func main() {
	lambda.Start(Handler)
}
