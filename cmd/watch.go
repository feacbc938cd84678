package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"teraplay/internal"
	"teraplay/player"
)

var fullscreen bool

var watchCmd = &cobra.Command{
	Use:   "watch <URL>",
	Short: "Resolve a share link and play it with mpv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printDisclaimer(cmd)

		ctx, stop := signalContext(cmd)
		defer stop()

		session, snap, err := resolveSession(ctx, args[0])
		if err != nil {
			return err
		}
		if !session.Watch() {
			return fmt.Errorf("nothing to play")
		}

		controller := player.NewController(player.DefaultRegistry(), player.MPVLoader(fullscreen), player.NoOrientation{})
		element := player.NewMediaElement()
		if err := controller.Attach(ctx, element, snap.Descriptor.DownloadURL, snap.Descriptor.Thumbnail); err != nil {
			return err
		}
		defer controller.Detach()

		// mpv gets --fs from the loader and never reports its fullscreen
		// state back; the element state here only drives the orientation lock.
		if fullscreen {
			element.SetFullscreen(true)
			defer element.SetFullscreen(false)
		}

		internal.LogInfo("Playing %s", snap.Descriptor.Filename)
		select {
		case <-controller.Player().Done():
		case <-ctx.Done():
			internal.LogInfo("Playback interrupted")
		}
		session.Back()
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&fullscreen, "fullscreen", false, "Start playback in fullscreen")
	addServerFlag(watchCmd)
}
