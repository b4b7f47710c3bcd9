package syncclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
	httpServer "partyrooms/internal/http"
	"partyrooms/internal/http/handlers"
	"partyrooms/internal/http/middleware"
	"partyrooms/internal/rooms"
	"partyrooms/internal/service"
)

func token(t *testing.T, id int64) string {
	t.Helper()
	tok, err := service.IssueToken(domain.Principal{UserID: id, Name: "p"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHTTPTransport_AgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.SetJWTSecret("syncclient-secret-01")

	hub := rooms.NewHub(rooms.Options{
		Factory: game.NewFactory(game.Config{Mafia: game.DefaultMafiaConfig(), Poker: game.DefaultPokerConfig()}),
	})
	t.Cleanup(hub.Wait)
	r := gin.New()
	httpServer.RegisterRoutes(r, &handlers.Handler{Hub: hub}, middleware.NewLocalLimiter(100, 100), "test")
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	snap, err := hub.Create(ctx, domain.Principal{UserID: 1, Name: "host"}, domain.RoomConfig{Variant: domain.VariantMafia})
	require.NoError(t, err)
	roomID := snap.Room.ID

	host := NewHTTPTransport(srv.URL+"/", token(t, 1))
	got, err := host.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, got.Room.Status)
	require.NotNil(t, got.Me)
	assert.True(t, got.Me.IsHost)

	require.NoError(t, host.Chat(ctx, roomID, "привет"))

	// действие в комнате, где игра не идет
	err = host.Submit(ctx, roomID, domain.ActionInput{Kind: domain.ActionVote})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), err)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "wrong_phase", apiErr.Code)

	stranger := NewHTTPTransport(srv.URL, token(t, 2))
	err = stranger.Chat(ctx, roomID, "hi")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_seated", apiErr.Code)

	_, err = NewHTTPTransport(srv.URL, "bad").Snapshot(ctx, roomID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
}
