package bot

import (
	"fmt"
	"strings"

	"chinchiro/models"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

var dieFaces = [...]string{"", "⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}

// formatRoll renders one throw as dice faces
func formatRoll(roll models.DiceRoll) string {
	return fmt.Sprintf("%s %s %s", dieFaces[roll[0]], dieFaces[roll[1]], dieFaces[roll[2]])
}

// formatOutcome renders a participant's final result with every attempt shown
func formatOutcome(o *models.RollOutcome) string {
	if o == nil {
		// The host busted before anyone else got to throw.
		return "🎲 dice stayed in the cup"
	}
	if o.ForcedLoss {
		return "💥 **bust!** (out before the roll)"
	}

	var sb strings.Builder
	for idx, roll := range o.Rolls {
		if idx > 0 {
			sb.WriteString(" → ")
		}
		sb.WriteString(formatRoll(roll))
	}

	sb.WriteString("  **")
	sb.WriteString(o.Category.String())
	if o.Category == models.OutcomePoint {
		sb.WriteString(fmt.Sprintf(" %d", o.Tiebreak))
	}
	sb.WriteString("**")
	return sb.String()
}

// buildRecruitingEmbed shows a round gathering players
func buildRecruitingEmbed(session *models.Session) *discordgo.MessageEmbed {
	roster := make([]string, 0, len(session.Players))
	for _, id := range session.Players {
		roster = append(roster, mention(id))
	}
	rosterLine := "*(nobody yet)*"
	if len(roster) > 0 {
		rosterLine = strings.Join(roster, ", ")
	}

	return &discordgo.MessageEmbed{
		Title: "🎲 Dice Round Recruiting",
		Description: fmt.Sprintf("%s is hosting for **%s coins** a seat.\nUse `/dice join` to sit down.",
			mention(session.HostID), FormatBalance(session.Bet)),
		Color: ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   fmt.Sprintf("Players (%d/%d)", len(session.Players), models.MaxSessionPlayers),
				Value:  rosterLine,
				Inline: false,
			},
		},
	}
}

// buildSettlementEmbed shows the complete round result
func buildSettlementEmbed(session *models.Session, settlement *models.RoundSettlement) *discordgo.MessageEmbed {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**Host** %s\n%s\n\n", mention(settlement.HostID), formatOutcome(session.HostOutcome)))

	for idx, p := range settlement.Players {
		outcome := session.PlayerOutcomes[idx].Outcome
		var verdict string
		switch p.Standing {
		case models.StandingWin:
			verdict = fmt.Sprintf("🏆 wins **%s coins**", FormatBalance(p.Payout))
		case models.StandingDraw:
			verdict = "🤝 draw, stake returned"
		default:
			verdict = "💸 loses the stake"
		}
		sb.WriteString(fmt.Sprintf("%s\n%s\n%s\n\n", mention(p.UserID), formatOutcome(outcome), verdict))
	}

	color := ColorSuccess
	if settlement.HostDelta < 0 {
		color = ColorDanger
	}

	hostLine := fmt.Sprintf("Host settles **%+d coins**", settlement.HostDelta)
	if settlement.HostForcedLoss {
		hostLine = "💥 The host busted before rolling — everyone wins double!"
		color = ColorWarning
	}

	return &discordgo.MessageEmbed{
		Title:       "🎲 Round Settled",
		Description: sb.String(),
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: hostLine,
		},
	}
}

// buildSoloEmbed shows a solo round result
func buildSoloEmbed(result *models.SoloResult) *discordgo.MessageEmbed {
	color := ColorDanger
	verdict := fmt.Sprintf("💸 You lost **%s coins**.", FormatBalance(result.Bet))
	if result.Payout > result.Bet {
		color = ColorSuccess
		verdict = fmt.Sprintf("🎉 You won **%s coins**!", FormatBalance(result.Payout-result.Bet))
	} else if result.Payout > 0 {
		color = ColorWarning
		verdict = fmt.Sprintf("😮 You got **%s coins** back.", FormatBalance(result.Payout))
	}

	return &discordgo.MessageEmbed{
		Title:       "🎲 Solo Round",
		Description: fmt.Sprintf("%s\n\n%s", formatOutcome(result.Outcome), verdict),
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("New balance: %s coins", FormatBalance(result.NewBalance)),
		},
	}
}
