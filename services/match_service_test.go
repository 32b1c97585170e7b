package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnight/tournament-system/models"
)

func setupScheduledMatch(t *testing.T, env *testEnv) *models.Match {
	t.Helper()
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1500)
	env.addPlayer(t, "p2", "bob", 1500)

	match, err := env.matchService.Create(context.Background(), "t1", "p1", "p2", models.GameTypeTrump)
	require.NoError(t, err)
	return match
}

func TestCreateMatch(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)

	assert.Equal(t, models.MatchScheduled, match.Status)
	assert.Equal(t, 1, match.MatchNumber)
	assert.Equal(t, "alice", match.Player1Name)
	assert.Equal(t, "bob", match.Player2Name)

	// Номер матча растёт в рамках турнира.
	second, err := env.matchService.Create(context.Background(), "t1", "p2", "p1", models.GameTypeCardPlus)
	require.NoError(t, err)
	assert.Equal(t, 2, second.MatchNumber)
}

func TestCreateMatchValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	_, err := env.matchService.Create(ctx, "t1", "p1", "p1", models.GameTypeTrump)
	assert.ErrorIs(t, err, ErrSamePlayer)

	_, err = env.matchService.Create(ctx, "t1", "p1", "p2", models.GameType("poker"))
	assert.ErrorIs(t, err, ErrUnknownGameType)

	// Игроки должны существовать.
	_, err = env.matchService.Create(ctx, "t1", "p1", "ghost", models.GameTypeTrump)
	require.Error(t, err)
}

func TestFullLifecycleSelfReport(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	started, err := env.matchService.Start(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	result, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)
	assert.Equal(t, models.ResultPendingApproval, result.Status)
	assert.Equal(t, "p2", result.OpponentID)

	// Первый отчёт перевёл матч в completed, рейтинг ещё не тронут.
	reported, err := env.matchService.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, reported.Status)
	assert.Equal(t, 1500, env.playerRating(t, "p1"))

	approved, err := env.matchService.Approve(ctx, result.ID, "admin", true)
	require.NoError(t, err)
	assert.Equal(t, models.MatchApproved, approved.Status)
	require.NotNil(t, approved.WinnerID)
	assert.Equal(t, "p1", *approved.WinnerID)

	// Равные 1500 при K=32: +16 / -16.
	assert.Equal(t, 1516, env.playerRating(t, "p1"))
	assert.Equal(t, 1484, env.playerRating(t, "p2"))

	winner, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, winner.AnnualWins)
	assert.Equal(t, 1, winner.TotalWins)
	assert.True(t, winner.TrumpRuleExperienced)

	loser, err := env.players.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, loser.AnnualLosses)
	assert.True(t, loser.TrumpRuleExperienced)
}

func TestSubmitResultLossOutcome(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	// "Я проиграл" от p1 означает победу p2.
	result, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeLoss)
	require.NoError(t, err)

	approved, err := env.matchService.Approve(ctx, result.ID, "admin", true)
	require.NoError(t, err)
	require.NotNil(t, approved.WinnerID)
	assert.Equal(t, "p2", *approved.WinnerID)
	assert.Equal(t, 1516, env.playerRating(t, "p2"))
}

func TestSubmitResultGuards(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.SubmitResult(ctx, match.ID, "stranger", models.OutcomeWin)
	assert.ErrorIs(t, err, ErrReporterNotInMatch)

	_, err = env.matchService.SubmitResult(ctx, match.ID, "p1", models.ReportedOutcome("draw"))
	assert.ErrorIs(t, err, ErrOutcomeInvalid)

	_, err = env.matchService.Cancel(ctx, match.ID)
	require.NoError(t, err)
	_, err = env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestApproveRejection(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	result, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)

	_, err = env.matchService.Approve(ctx, result.ID, "admin", false)
	require.NoError(t, err)

	rejected, err := env.results.GetByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultRejected, rejected.Status)

	// Рейтинг не тронут, повторное решение по тому же результату — ошибка.
	assert.Equal(t, 1500, env.playerRating(t, "p1"))
	_, err = env.matchService.Approve(ctx, result.ID, "admin", true)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestApproveSupersedesCompetingReports(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	first, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)
	second, err := env.matchService.SubmitResult(ctx, match.ID, "p2", models.OutcomeWin)
	require.NoError(t, err)

	_, err = env.matchService.Approve(ctx, first.ID, "admin", true)
	require.NoError(t, err)

	other, err := env.results.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultSuperseded, other.Status)
}

func TestAdminDirectInput(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	pending, err := env.matchService.SubmitResult(ctx, match.ID, "p2", models.OutcomeWin)
	require.NoError(t, err)

	approved, err := env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p2", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.MatchApproved, approved.Status)
	assert.Equal(t, 1516, env.playerRating(t, "p1"))

	// Висевший самоотчёт вытеснен решением админа.
	stale, err := env.results.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultSuperseded, stale.Status)

	results, err := env.results.ListByMatch(ctx, match.ID)
	require.NoError(t, err)
	approvedCount := 0
	for _, r := range results {
		if r.Status == models.ResultApproved {
			approvedCount++
		}
	}
	assert.Equal(t, 1, approvedCount)
}

func TestAdminDirectInputGuards(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.AdminDirectInput(ctx, match.ID, "stranger", "p2", "admin")
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)

	_, err = env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p1", "admin")
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)
}

func TestInvalidateReversesRatings(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p2", "admin")
	require.NoError(t, err)
	require.Equal(t, 1516, env.playerRating(t, "p1"))

	invalidated, err := env.matchService.Invalidate(ctx, match.ID, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, models.MatchInvalidated, invalidated.Status)
	assert.Nil(t, invalidated.WinnerID)
	require.NotNil(t, invalidated.InvalidReason)
	assert.Equal(t, "duplicate entry", *invalidated.InvalidReason)

	// Рейтинги и счётчики вернулись к исходным.
	assert.Equal(t, 1500, env.playerRating(t, "p1"))
	assert.Equal(t, 1500, env.playerRating(t, "p2"))
	winner, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, winner.AnnualWins)
	assert.Zero(t, winner.TotalWins)
}

func TestInvalidateWithoutOutcome(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	// completed без подтверждения: дельт нет, откатывать нечего.
	_, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)

	_, err = env.matchService.Invalidate(ctx, match.ID, "never happened")
	require.NoError(t, err)
	assert.Equal(t, 1500, env.playerRating(t, "p1"))
	assert.Equal(t, 1500, env.playerRating(t, "p2"))
}

func TestEditSwapsWinner(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p2", "admin")
	require.NoError(t, err)

	newWinner := "p2"
	edited, err := env.matchService.Edit(ctx, match.ID, &newWinner, nil)
	require.NoError(t, err)
	require.NotNil(t, edited.WinnerID)
	assert.Equal(t, "p2", *edited.WinnerID)

	// Старые дельты откатились, новые начислены с исходных рейтингов.
	assert.Equal(t, 1484, env.playerRating(t, "p1"))
	assert.Equal(t, 1516, env.playerRating(t, "p2"))

	// Обратная правка возвращает исходное состояние.
	backWinner := "p1"
	_, err = env.matchService.Edit(ctx, match.ID, &backWinner, nil)
	require.NoError(t, err)
	assert.Equal(t, 1516, env.playerRating(t, "p1"))
	assert.Equal(t, 1484, env.playerRating(t, "p2"))
}

func TestEditGameTypeOnly(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p2", "admin")
	require.NoError(t, err)

	newType := models.GameTypeCardPlus
	edited, err := env.matchService.Edit(ctx, match.ID, nil, &newType)
	require.NoError(t, err)
	assert.Equal(t, models.GameTypeCardPlus, edited.GameType)

	// Смена варианта правил не трогает рейтинг.
	assert.Equal(t, 1516, env.playerRating(t, "p1"))
	assert.Equal(t, 1484, env.playerRating(t, "p2"))
}

func TestEditSupersedesPendingReports(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	pending, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)

	// Правка с назначением победителя — финальное решение: висящий
	// самоотчёт не должен остаться pending_approval навсегда.
	winner := "p2"
	_, err = env.matchService.Edit(ctx, match.ID, &winner, nil)
	require.NoError(t, err)

	stale, err := env.results.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultSuperseded, stale.Status)
}

func TestEditGuards(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	winner := "p1"
	_, err := env.matchService.Edit(ctx, match.ID, &winner, nil)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = env.matchService.AdminDirectInput(ctx, match.ID, "p1", "p2", "admin")
	require.NoError(t, err)

	stranger := "stranger"
	_, err = env.matchService.Edit(ctx, match.ID, &stranger, nil)
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)
}

func TestCancelAndDelete(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	second, err := env.matchService.Create(ctx, "t1", "p2", "p1", models.GameTypeTrump)
	require.NoError(t, err)

	cancelled, err := env.matchService.Cancel(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, cancelled.Status)

	// Отменённый матч не удаляется, scheduled — удаляется.
	err = env.matchService.DeleteScheduled(ctx, match.ID)
	assert.ErrorIs(t, err, ErrMatchNotDeletable)

	require.NoError(t, env.matchService.DeleteScheduled(ctx, second.ID))
	_, err = env.matchService.GetByID(ctx, second.ID)
	require.Error(t, err)
}

func TestStartGuards(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.Start(ctx, match.ID)
	require.NoError(t, err)

	_, err = env.matchService.Start(ctx, match.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

// Мусор в колонке победителя не должен валить правку: он трактуется как
// "победителя не было", дельты не откатываются.
func TestEditToleratesCorruptedWinner(t *testing.T) {
	env := newTestEnv(t)
	match := setupScheduledMatch(t, env)
	ctx := context.Background()

	_, err := env.matchService.SubmitResult(ctx, match.ID, "p1", models.OutcomeWin)
	require.NoError(t, err)

	stored, err := env.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	garbage := "completed"
	stored.WinnerID = &garbage
	require.NoError(t, env.matches.Update(ctx, stored))

	winner := "p2"
	edited, err := env.matchService.Edit(ctx, match.ID, &winner, nil)
	require.NoError(t, err)
	require.NotNil(t, edited.WinnerID)
	assert.Equal(t, "p2", *edited.WinnerID)
	assert.Equal(t, 1516, env.playerRating(t, "p2"))
	assert.Equal(t, 1484, env.playerRating(t, "p1"))
}
