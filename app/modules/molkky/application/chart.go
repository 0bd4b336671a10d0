package molkkyservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	molkkydb "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 800
	chartHeight = 400
)

func (s *MolkkyService) ScoreChart(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ScoreChart", gameID.String(), func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		if _, err := s.repo.GetGame(ctx, nil, gameID); err != nil {
			if errors.Is(err, molkkydb.ErrNotFound) {
				return results.FailureResult[[]byte](molkkydomain.ErrGameNotFound), nil
			}
			return results.OperationResult[[]byte, error]{}, err
		}

		players, err := s.repo.ListPlayers(ctx, nil, gameID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		throws, err := s.repo.ListThrows(ctx, nil, gameID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}

		png, err := renderScoreChart(players, throws, s.playerNames(ctx, players))
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render score chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	}))
}

// playerNames resolves legend names, falling back to seat labels when the
// directory is missing or fails.
func (s *MolkkyService) playerNames(ctx context.Context, players []molkkydb.Player) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(players))
	if s.users != nil && len(players) > 0 {
		ids := make([]uuid.UUID, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.UserID)
		}
		byUser, err := s.users.DisplayNames(ctx, ids)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to resolve player names for chart", attr.Error(err))
		}
		for _, p := range players {
			if name, ok := byUser[p.UserID]; ok {
				names[p.ID] = name
			}
		}
	}
	for i, p := range players {
		if _, ok := names[p.ID]; !ok {
			names[p.ID] = fmt.Sprintf("Player %d", i+1)
		}
	}
	return names
}

// renderScoreChart draws score-after against throw sequence. Every series
// starts at (0, 0) so players who have not thrown still get a legend entry.
func renderScoreChart(players []molkkydb.Player, throws []molkkydb.Throw, names map[uuid.UUID]string) ([]byte, error) {
	if len(players) == 0 {
		return nil, errors.New("game has no players")
	}

	xs := make(map[uuid.UUID][]float64, len(players))
	ys := make(map[uuid.UUID][]float64, len(players))
	for _, p := range players {
		xs[p.ID] = []float64{0}
		ys[p.ID] = []float64{0}
	}
	lastSeq := 0
	for _, t := range throws {
		xs[t.PlayerID] = append(xs[t.PlayerID], float64(t.Sequence))
		ys[t.PlayerID] = append(ys[t.PlayerID], float64(t.ScoreAfter))
		lastSeq = max(lastSeq, t.Sequence)
	}

	series := make([]chart.Series, 0, len(players))
	for i, p := range players {
		color := chart.GetDefaultColor(i)
		series = append(series, chart.ContinuousSeries{
			Name:    names[p.ID],
			XValues: xs[p.ID],
			YValues: ys[p.ID],
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotWidth:    3,
				DotColor:    color,
			},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding:   chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.XAxis{
			Name:           "Throw",
			ValueFormatter: func(v any) string { return fmt.Sprintf("%.0f", v) },
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(max(lastSeq, 1))},
		},
		YAxis: chart.YAxis{
			Name:  "Score",
			Range: &chart.ContinuousRange{Min: 0, Max: molkkydomain.WinningScore},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
