package main

import (
	"webbank/app"
)

// @title           WebBank API
// @version         1.0
// @description     Web banking backend: accounts, atomic money movement and balance rollups.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
