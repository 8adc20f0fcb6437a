package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manzanit0/placefinder/pkg/mapview"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
	"github.com/manzanit0/placefinder/pkg/session"
)

type prompt struct {
	in           *bufio.Reader
	out          io.Writer
	orchestrator *search.Orchestrator
	renderer     mapview.Renderer
}

func (p *prompt) readLine(label string) (string, error) {
	fmt.Fprint(p.out, label)

	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func (p *prompt) loop(ctx context.Context, sess *session.Session) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query, err := p.readLine("search (empty to quit)> ")
		if err != nil {
			return err
		}

		if query == "" {
			return nil
		}

		labels, err := p.orchestrator.Search(ctx, sess, query)
		if err != nil {
			fmt.Fprintln(p.out, places.UserMessage(err))
			continue
		}

		if len(labels) == 0 {
			fmt.Fprintln(p.out, "No suggestions.")
			continue
		}

		mapview.SuggestionsTable(p.out, labels)

		choice, err := p.readLine("pick # (empty for the first place)> ")
		if err != nil {
			return err
		}

		sel := search.Selection{Query: query}
		if choice != "" {
			n, err := strconv.Atoi(choice)
			if err != nil || n < 1 || n > len(labels) {
				fmt.Fprintf(p.out, "Please pick a number between 1 and %d.\n", len(labels))
				continue
			}

			sel.Label = labels[n-1]
		}

		if err := p.resolve(ctx, sess, sel); err != nil {
			return err
		}
	}
}

func (p *prompt) resolve(ctx context.Context, sess *session.Session, sel search.Selection) error {
	res, err := p.orchestrator.Select(ctx, sess, sel)
	if errors.Is(err, search.ErrNoValidSuggestion) {
		fmt.Fprintln(p.out, "No valid place suggestions found.")
		return nil
	}

	if err != nil {
		fmt.Fprintln(p.out, places.UserMessage(err))
		return nil
	}

	marker := mapview.NewMarker(res.Coordinate.Latitude, res.Coordinate.Longitude, res.Label)
	marker.Address = res.Address

	return p.renderer.Render(p.out, marker)
}
