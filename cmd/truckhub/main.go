package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/truckhub/cmd/truckhub/app"
)

func main() {
	app.NewApp().Run()
}
