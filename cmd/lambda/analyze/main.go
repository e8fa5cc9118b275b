// Workbook analysis Lambda entry point, triggered by uploads to the
// submissions bucket.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"homeport-qualifier/internal/handlers"
	"homeport-qualifier/internal/utils"
)

func main() {
	_ = utils.InitLogger(os.Getenv("LOG_LEVEL"))
	defer utils.Sync()

	handler, err := handlers.NewAnalyzeHandler(context.Background())
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer handler.Close()

	lambda.Start(handler.Handle)
}
