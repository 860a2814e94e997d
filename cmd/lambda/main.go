package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"pos-engine/pkg/lambda"
)

func main() {
	cm := lambda.GetConnectionManager()
	defer cm.Cleanup()

	awslambda.Start(cm.Handle)
}
