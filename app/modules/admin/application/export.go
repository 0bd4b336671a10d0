package adminservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	admindomain "github.com/Black-And-White-Club/party-companion/app/modules/admin/domain"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type exportData struct {
	users  []userdomain.User
	scores []scoredomain.Score
	games  []molkkydomain.Game
	names  map[uuid.UUID]string
}

func (s *AdminService) collectExport(ctx context.Context) (*exportData, error) {
	data := &exportData{}
	for offset := 0; ; offset += exportUserPage {
		page, err := s.users.ListUsers(ctx, exportUserPage, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		data.users = append(data.users, page...)
		if len(page) < exportUserPage || len(data.users) >= exportRowLimit {
			break
		}
	}

	var err error
	if data.scores, err = s.scores.ListScores(ctx, "", exportRowLimit); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	if data.games, err = s.molkky.ListGames(ctx, nil, exportRowLimit); err != nil {
		return nil, fmt.Errorf("failed to list molkky games: %w", err)
	}

	data.names = make(map[uuid.UUID]string, len(data.users))
	for _, u := range data.users {
		data.names[u.ID] = u.DisplayName
	}
	return data, nil
}

func buildWorkbook(data *exportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", admindomain.SheetUsers); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{admindomain.SheetScores, admindomain.SheetMolkky} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	users := [][]any{{"ID", "Username", "Display name", "Admin", "Created at"}}
	for _, u := range data.users {
		users = append(users, []any{u.ID.String(), u.Username, u.DisplayName, u.IsAdmin, formatTime(&u.CreatedAt)})
	}

	scores := [][]any{{"ID", "Game", "User ID", "Player", "Value", "Created at"}}
	for _, sc := range data.scores {
		scores = append(scores, []any{sc.ID.String(), sc.GameSlug, sc.UserID.String(), data.names[sc.UserID], sc.Value, formatTime(&sc.CreatedAt)})
	}

	games := [][]any{{"ID", "Status", "Creator", "Winner", "Created at", "Started at", "Ended at"}}
	for _, g := range data.games {
		winner := ""
		if g.WinnerID != nil {
			winner = data.names[*g.WinnerID]
			if winner == "" {
				winner = g.WinnerID.String()
			}
		}
		games = append(games, []any{
			g.ID.String(), string(g.Status), data.names[g.CreatorID], winner,
			formatTime(&g.CreatedAt), formatTime(g.StartedAt), formatTime(g.EndedAt),
		})
	}

	for sheet, rows := range map[string][][]any{
		admindomain.SheetUsers:  users,
		admindomain.SheetScores: scores,
		admindomain.SheetMolkky: games,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
