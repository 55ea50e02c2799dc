package game

import (
	"github.com/milk9111/shooter/bot"
	"github.com/milk9111/shooter/character"
	"github.com/milk9111/shooter/player"
)

// Actor is the tagged union over actor kinds. Bots and the player share a
// character core but diverge in update logic; dispatch is by checking the
// set variant, never through an interface.
type Actor struct {
	Bot    *bot.Bot
	Player *player.Player
}

// Character returns the shared actor core of whichever variant is set.
func (a *Actor) Character() *character.Character {
	switch {
	case a.Bot != nil:
		return a.Bot.Character()
	case a.Player != nil:
		return a.Player.Character()
	}
	return nil
}
