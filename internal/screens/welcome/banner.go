package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/ui/theme"
)

const bannerArt = `
 ██████╗ ███████╗███╗   ███╗███████╗██████╗ ██╗███████╗
 ██╔══██╗██╔════╝████╗ ████║██╔════╝██╔══██╗██║╚══███╔╝
 ██████╔╝█████╗  ██╔████╔██║█████╗  ██║  ██║██║  ███╔╝
 ██╔══██╗██╔══╝  ██║╚██╔╝██║██╔══╝  ██║  ██║██║ ███╔╝
 ██║  ██║███████╗██║ ╚═╝ ██║███████╗██████╔╝██║███████╗
 ╚═╝  ╚═╝╚══════╝╚═╝     ╚═╝╚══════╝╚═════╝ ╚═╝╚══════╝`

const bannerCompact = "R E M E D I Z"

// bannerMinWidth is the narrowest terminal that fits the block banner.
const bannerMinWidth = 58

// RenderBanner returns the banner in the primary color, or a one-line
// fallback on narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
