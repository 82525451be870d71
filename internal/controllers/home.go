package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomeController serves the demo page with an embedded websocket client.
type HomeController struct{}

func NewHomeController() *HomeController {
	return &HomeController{}
}

func (c *HomeController) Index(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Real-time Payment Updates</title>
</head>
<body>
    <h1>Real-time Payment Updates</h1>
    <div id="messages"></div>

    <script>
        let socket;

        function connectWebSocket() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            socket = new WebSocket(scheme + location.host + '/ws');

            socket.onopen = function(event) {
                console.log('WebSocket connection established');
            };

            socket.onmessage = function(event) {
                const msg = JSON.parse(event.data);
                const timestamp = new Date().toLocaleTimeString();
                displayMessage(timestamp + ': ' + msg.type + ' ' + msg.id +
                    ' (' + msg.amount + ' ' + msg.currency + ')');
            };

            socket.onclose = function(event) {
                console.log('WebSocket connection closed');
                const timestamp = new Date().toLocaleTimeString();
                displayMessage(timestamp + ': WebSocket connection closed');
                // Attempt to reconnect after 5 seconds
                setTimeout(connectWebSocket, 5000);
            };
        }

        function displayMessage(message) {
            const messagesDiv = document.getElementById('messages');
            const messageElement = document.createElement('p');
            messageElement.textContent = message;
            // Insert the new message at the top
            messagesDiv.insertBefore(messageElement, messagesDiv.firstChild);
        }

        // Initial connection attempt
        connectWebSocket();
    </script>
</body>
</html>
`
