package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docsync/internal/reflection"
)

var reflectCmd = &cobra.Command{
	Use:   "reflect <file> <offset>",
	Short: "Show the node, type and method call at a byte offset",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		path, err := filepath.Abs(args[0])
		if err != nil {
			log.Fatalf("Invalid path %s: %v", args[0], err)
		}
		offset, err := strconv.Atoi(args[1])
		if err != nil || offset < 0 {
			log.Fatalf("Invalid offset %q", args[1])
		}

		_, runner := initRunner(cmd)
		doc, err := runner.Load(ctx, path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		if offset > doc.Len() {
			log.Fatalf("Offset %d is past the end of %s (%d bytes)", offset, args[0], doc.Len())
		}

		reflected, err := runner.Reflector().ReflectOffset(ctx, doc, offset)
		if err != nil {
			log.Fatalf("Reflection failed: %v", err)
		}

		p := newPrinter(os.Stdout)
		fmt.Fprintf(p.out, "%s:%s\n", p.path.Sprint(p.rel(path)), p.pos.Sprint(doc.Position(offset)))
		fmt.Fprintf(p.out, "  node:   %s\n", strings.TrimPrefix(fmt.Sprintf("%T", reflected.Node), "*syntax."))
		fmt.Fprintf(p.out, "  type:   %s\n", p.msg.Sprint(reflected.Type))
		if class, ok := reflected.Class(); ok {
			fmt.Fprintf(p.out, "  class:  %s\n", class.FQN())
		}
		if method, ok := reflected.Method(); ok {
			fmt.Fprintf(p.out, "  method: %s\n", method.Name())
		}

		call, err := runner.Reflector().ReflectMethodCall(ctx, doc, offset)
		switch {
		case errors.Is(err, reflection.ErrNoMethodCall):
			return
		case err != nil:
			log.Fatalf("Reflection failed: %v", err)
		}
		fmt.Fprintf(p.out, "  call:   %s on %s\n", call.Name, call.Receiver)
		if method, ok := call.Method(); ok {
			fmt.Fprintf(p.out, "  callee: %s\n", method)
		} else {
			fmt.Fprintf(p.out, "  callee: %s\n", p.err.Sprint("unresolved"))
		}
		fmt.Fprintf(p.out, "  returns: %s\n", p.msg.Sprint(call.ReturnType(ctx)))
	},
}
