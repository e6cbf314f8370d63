// Package web holds static assets served by the API.
package web

import _ "embed"

// WidgetLoader is the script site owners embed with
// <script src=".../widget-loader.js" data-bot-id="..."></script>.
//
//go:embed widget-loader.js
var WidgetLoader []byte
