package runtime

import (
	"github.com/saylorsolutions/fluentecs/plugin"
	"github.com/saylorsolutions/fluentecs/plugin/dashboard"
	"github.com/saylorsolutions/fluentecs/plugin/etcd"
	"github.com/saylorsolutions/fluentecs/plugin/keycloak"
	"github.com/saylorsolutions/fluentecs/plugin/metallb"
	"github.com/saylorsolutions/fluentecs/plugin/postfix"
)

// AppPlugins returns the plugins of all known applications.
func AppPlugins() []plugin.Plugin {
	return []plugin.Plugin{
		metallb.Plugin(),
		etcd.Plugin(),
		postfix.Plugin(),
		dashboard.Plugin(),
		keycloak.Plugin(),
	}
}
