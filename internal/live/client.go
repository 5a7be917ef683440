package live

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>trellis</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 32rem; margin: 2rem auto; }
.done label { text-decoration: line-through; color: #888; }
.items { padding-left: 0; list-style: none; }
</style>
</head>
<body>
<div id="app">%s</div>
%s
</body>
</html>
`

// ClientScript keeps #app in sync with published frames and reports
// click and input events back to the server.
const ClientScript = `
<script>
(function() {
    'use strict';

    var app = document.getElementById('app');
    var seq = 0;
    var ws = null;
    var reconnectDelay = 500;

    function pathOf(el) {
        var path = [];
        while (el && el !== app) {
            var parent = el.parentElement;
            if (!parent) {
                return null;
            }
            path.unshift(Array.prototype.indexOf.call(parent.children, el));
            el = parent;
        }
        return el === app ? path : null;
    }

    function elementAt(path) {
        var el = app;
        for (var i = 0; el && i < path.length; i++) {
            el = el.children[path[i]];
        }
        return el;
    }

    function apply(frame) {
        if (frame.seq <= seq) {
            return;
        }
        seq = frame.seq;

        var focused = document.activeElement && pathOf(document.activeElement);
        app.innerHTML = frame.html;
        if (focused) {
            var el = elementAt(focused);
            if (el && el.focus) {
                el.focus();
                if (typeof el.value === 'string' && el.setSelectionRange) {
                    el.setSelectionRange(el.value.length, el.value.length);
                }
            }
        }
    }

    function send(el, type, value) {
        var path = pathOf(el);
        if (!path || !ws || ws.readyState !== WebSocket.OPEN) {
            return;
        }
        var msg = {path: path, type: type};
        if (value !== undefined) {
            msg.value = value;
        }
        ws.send(JSON.stringify(msg));
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            reconnectDelay = 500;
        };
        ws.onmessage = function(e) {
            try {
                apply(JSON.parse(e.data));
            } catch (err) {
                console.error('[trellis] bad frame', err);
            }
        };
        ws.onclose = function() {
            seq = 0;
            setTimeout(connect, reconnectDelay);
            reconnectDelay = Math.min(reconnectDelay * 2, 10000);
        };
    }

    app.addEventListener('click', function(e) {
        if (e.target.type !== 'checkbox') {
            e.preventDefault();
        }
        send(e.target, 'click');
    });
    app.addEventListener('input', function(e) {
        send(e.target, 'input', e.target.value);
    });
    app.addEventListener('submit', function(e) {
        e.preventDefault();
    });

    connect();
})();
</script>
`
