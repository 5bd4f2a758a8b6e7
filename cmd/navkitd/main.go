// Command navkitd serves site navigation (menus, breadcrumbs and
// sitemaps.org XML) built from declarative XML or YAML sitemap files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
