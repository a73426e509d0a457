// Command xinfo connects to an X server and prints what the server granted
// at connection setup: vendor, protocol version, resource id range, screen
// geometry and which of the commonly used extensions are present.
package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	yaxi "github.com/proxin187/Yaxi"
)

var (
	displayFlag    string
	extensionsFlag []string
	xineramaFlag   bool
)

var rootCmd = &cobra.Command{
	Use:          "xinfo",
	Short:        "Print X server connection setup information",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&displayFlag, "display", "d", "",
		"display to connect to (defaults to $DISPLAY)")
	rootCmd.Flags().StringSliceVarP(&extensionsFlag, "extension", "e",
		[]string{"XINERAMA", "RANDR", "MIT-SHM", "XKEYBOARD", "RENDER"},
		"extensions to probe")
	rootCmd.Flags().BoolVar(&xineramaFlag, "xinerama", false,
		"query the xinerama screen layout")
}

func run(cmd *cobra.Command, args []string) error {
	c, err := yaxi.NewConnDisplay(displayFlag)
	if err != nil {
		return err
	}
	defer c.Close()

	setup := &c.Setup
	fmt.Printf("display:            %s\n", c.Display())
	fmt.Printf("vendor:             %s release %d\n", setup.Vendor, setup.ReleaseNumber)
	fmt.Printf("protocol version:   %d.%d\n", setup.ProtocolMajorVersion, setup.ProtocolMinorVersion)
	fmt.Printf("resource id range:  %#x mask %#x\n", setup.ResourceIdBase, setup.ResourceIdMask)
	fmt.Printf("max request length: %d bytes\n", 4*uint32(setup.MaximumRequestLength))
	fmt.Printf("keycode range:      %d..%d\n", setup.MinKeycode, setup.MaxKeycode)

	for i, screen := range setup.Roots {
		fmt.Printf("screen %d: root %#x, %dx%d pixels (%dx%d mm), depth %d\n",
			i, uint32(screen.Root),
			screen.WidthInPixels, screen.HeightInPixels,
			screen.WidthInMillimeters, screen.HeightInMillimeters,
			screen.RootDepth)
	}

	present, err := probeExtensions(c, extensionsFlag)
	if err != nil {
		return err
	}
	for _, name := range extensionsFlag {
		name = strings.ToUpper(name)
		if info, ok := present[name]; ok {
			fmt.Printf("extension %-12s present, opcode %d, events %d+, errors %d+\n",
				info.Name, info.MajorOpcode, info.FirstEvent, info.FirstError)
		} else {
			fmt.Printf("extension %-12s absent\n", name)
		}
	}

	if xineramaFlag {
		if err := printXinerama(c); err != nil {
			return err
		}
	}
	return nil
}

// probeExtensions registers every name concurrently; absence is a result,
// not a failure.
func probeExtensions(c *yaxi.Conn, names []string) (map[string]*yaxi.ExtensionInfo, error) {
	present := make(map[string]*yaxi.ExtensionInfo)
	var mu sync.Mutex

	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			info, err := c.RegisterExtension(name)
			if errors.Is(err, yaxi.ErrExtensionNotPresent) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			present[info.Name] = info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return present, nil
}

func printXinerama(c *yaxi.Conn) error {
	if err := c.XineramaInit(); err != nil {
		return err
	}

	ack, err := c.XineramaIsActive()
	if err != nil {
		return err
	}
	active, err := ack.Reply()
	if err != nil {
		return err
	}
	if active.State == 0 {
		fmt.Println("xinerama: inactive")
		return nil
	}

	qck, err := c.XineramaQueryScreens()
	if err != nil {
		return err
	}
	screens, err := qck.Reply()
	if err != nil {
		return err
	}

	sort.Slice(screens.Screens, func(i, j int) bool {
		a, b := screens.Screens[i], screens.Screens[j]
		if a.XOrg != b.XOrg {
			return a.XOrg < b.XOrg
		}
		return a.YOrg < b.YOrg
	})
	for i, screen := range screens.Screens {
		fmt.Printf("xinerama screen %d: %dx%d at %d,%d\n",
			i, screen.Width, screen.Height, screen.XOrg, screen.YOrg)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("xinfo failed")
	}
}
