package main

import (
	"fmt"
	"os"

	"restaurantai/pkg/logger"
)

// @title RestaurantAI API
// @version 1.0
// @description Incremental tag analytics over restaurant customer feedback

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
