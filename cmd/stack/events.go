package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["stack-events"] = stackEvents
	lib.Args["stack-events"] = stackEventsArgs{}
}

type stackEventsArgs struct {
	Name  string `arg:"positional,required" help:"stack name"`
	Limit int    `arg:"-n,--limit" default:"25" help:"max events to show"`
}

func (stackEventsArgs) Description() string {
	return "\nshow recent stack events, newest first\n"
}

func stackEvents() {
	var args stackEventsArgs
	arg.MustParse(&args)
	ctx := context.Background()
	events, err := lib.CFStackEvents(ctx, args.Name, args.Limit)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	for _, e := range events {
		fmt.Println(e.At.Format("2006-01-02T15:04:05Z07:00"), e.Resource, e.Status, e.Reason)
	}
}
