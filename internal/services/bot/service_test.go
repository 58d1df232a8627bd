package bot_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/dependencies/mocks"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/bot"
	"github.com/mcoot/pirateclash/internal/services/combat"
	"github.com/mcoot/pirateclash/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	mockRandom *mocks.MockRandom
	service    *bot.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.mockRandom = mocks.NewMockRandom()
	s.service = bot.NewService(
		bot.DefaultStrategies(s.mockRandom),
		combat.NewCalculator(s.mockRandom),
		testutil.NopLogger(),
	)
}

func (s *ServiceSuite) TestStrategies() {
	s.Equal([]string{model.BotStrategyEasy, model.BotStrategyMedium}, s.service.Strategies())
	s.True(s.service.HasStrategy(model.BotStrategyMedium))
	s.False(s.service.HasStrategy("hard"))
}

func (s *ServiceSuite) TestTakeTurn_ChoosesThenResolves() {
	// strategy draw picks light, then speed, variance and crit draws
	s.mockRandom.QueueFloat64(0.1, 0.99, 0.5, 0.99)

	turn, err := s.service.TakeTurn(model.BotStrategyMedium, testFighter(), testFighter(), 100, 100, 0)
	s.Require().NoError(err)
	s.Equal("Jab", turn.Move.Name)
	s.Equal(10, turn.Hit.Damage)
	s.Equal(4, s.mockRandom.Float64Consumed())
}

func (s *ServiceSuite) TestTakeTurn_UnknownStrategy() {
	_, err := s.service.TakeTurn("hard", testFighter(), testFighter(), 100, 100, 0)
	s.ErrorIs(err, model.ErrUnknownBotStrategy)
}
